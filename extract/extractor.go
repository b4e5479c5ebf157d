// Package extract converts uploaded artifacts into chat content parts:
// plain text for document types, a base64 payload for image types.
package extract

import (
	"encoding/base64"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tqye/geminiecho/messages"
)

// Error codes reported by the extractor
const (
	CodeRead  = 1 // artifact could not be read
	CodeParse = 2 // artifact content could not be decoded
)

// ExtractError is the structured failure report: a non-zero code plus a
// user-displayable message. The extractor never panics past its boundary.
type ExtractError struct {
	Code    int
	Message string
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract: [%d] %s", e.Code, e.Message)
}

func readFailed(err error) *ExtractError {
	return &ExtractError{Code: CodeRead, Message: fmt.Sprintf("loading file content failed: %v", err)}
}

func parseFailed(name string, err error) *ExtractError {
	return &ExtractError{Code: CodeParse, Message: fmt.Sprintf("loading content of %s failed: %v", name, err)}
}

// imageMimeTypes maps supported image extensions to MIME types
var imageMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// IsImage reports whether the filename names a supported image type
func IsImage(filename string) bool {
	_, ok := imageMimeTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Extract reads an uploaded artifact and produces either a text part
// (word-processor, slide-deck, PDF, HTML, plain text) or a base64 image
// part (jpg, jpeg, png, webp), dispatching on the filename extension.
func Extract(filename string, r io.Reader) (*messages.Part, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, readFailed(err)
	}

	ext := strings.ToLower(filepath.Ext(filename))

	if mime, ok := imageMimeTypes[ext]; ok {
		part := messages.ImagePart(base64.StdEncoding.EncodeToString(data), mime)
		part.FileName = filepath.Base(filename)
		return &part, nil
	}

	var text string
	switch ext {
	case ".docx":
		text, err = docxText(data)
	case ".pptx":
		text, err = pptxText(data)
	case ".pdf":
		text, err = pdfText(data)
	case ".html", ".htm":
		text, err = htmlText(data)
	default:
		// csv, txt, md and anything else plain
		text = string(data)
	}
	if err != nil {
		return nil, parseFailed(filepath.Base(filename), err)
	}

	part := messages.TextPart(text)
	part.FileName = filepath.Base(filename)
	return &part, nil
}
