package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// docxText pulls the paragraph text out of a word-processor document.
// OOXML keeps body text in word/document.xml as runs of <w:t> elements.
func docxText(data []byte) (string, error) {
	return ooxmlText(data, func(name string) bool {
		return name == "word/document.xml"
	})
}

// pptxText pulls the text out of a slide deck. Each slide lives in its own
// ppt/slides/slideN.xml with runs of <a:t> elements.
func pptxText(data []byte) (string, error) {
	return ooxmlText(data, func(name string) bool {
		return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
	})
}

// ooxmlText extracts the character data of all <t> elements from the zip
// entries selected by match, with a blank line after each paragraph.
func ooxmlText(data []byte, match func(string) bool) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}

	var entries []*zip.File
	for _, f := range zr.File {
		if match(f.Name) {
			entries = append(entries, f)
		}
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no document body found in archive")
	}
	// Slides come back in archive order; keep them deterministic
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	var sb strings.Builder
	for _, entry := range entries {
		rc, err := entry.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", entry.Name, err)
		}
		err = scanTextElements(rc, &sb)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", entry.Name, err)
		}
	}
	return sb.String(), nil
}

// scanTextElements walks the XML token stream, collecting character data
// inside <t> elements and ending each <p> paragraph with a newline.
func scanTextElements(r io.Reader, sb *strings.Builder) error {
	decoder := xml.NewDecoder(r)
	inText := 0
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				if inText > 0 {
					inText--
				}
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText > 0 {
				sb.Write(t)
			}
		}
	}
}
