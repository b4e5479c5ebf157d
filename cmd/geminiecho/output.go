package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/tqye/geminiecho/messages"
	"github.com/tqye/geminiecho/sessions"
)

var (

	// termenv output for consistent terminal styling
	output = termenv.NewOutput(os.Stdout)

	// Style helpers - initialized in initColors()
	errorStyle   termenv.Style
	successStyle termenv.Style
	dimStyle     termenv.Style
	boldStyle    termenv.Style
	userStyle    termenv.Style
	modelStyle   termenv.Style
)

// initColors initializes color styles based on terminal background
func initColors() {
	if termenv.HasDarkBackground() {
		errorStyle = output.String().Foreground(output.Color("124"))      // Muted red
		successStyle = output.String().Foreground(output.Color("65"))     // Muted green
		dimStyle = output.String().Faint()                                // Dimmed text
		boldStyle = output.String().Bold()                                // Bold text
		userStyle = output.String().Foreground(output.Color("32")).Bold() // Muted blue
		modelStyle = output.String().Foreground(output.Color("141"))      // Muted purple
	} else {
		errorStyle = output.String().Foreground(output.Color("160"))      // Dark red
		successStyle = output.String().Foreground(output.Color("28"))     // Dark green
		dimStyle = output.String().Foreground(output.Color("240"))        // Dark gray
		boldStyle = output.String().Bold()                                // Bold text
		userStyle = output.String().Foreground(output.Color("26")).Bold() // Dark blue
		modelStyle = output.String().Foreground(output.Color("90"))       // Dark purple
	}
}

// isTerminal checks if output is going to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// renderParts prints reply parts: text styled, images saved to temp files
func renderParts(parts []messages.Part) {
	for _, part := range parts {
		switch {
		case part.IsText():
			fmt.Println(modelStyle.Styled(part.Text))
		case part.IsImage():
			data, err := base64.StdEncoding.DecodeString(part.ImageData)
			if err != nil {
				fmt.Println(errorStyle.Styled("received an undecodable image"))
				continue
			}
			path, err := saveTempFile(data, "geminiecho-*.jpg")
			if err != nil {
				fmt.Println(errorStyle.Styled(fmt.Sprintf("cannot save image: %v", err)))
				continue
			}
			fmt.Printf("%s %s\n", successStyle.Styled("Image saved:"), path)
		}
	}
}

// renderMessage replays one history entry with a role prefix
func renderMessage(msg messages.Message) {
	prefix := userStyle.Styled("[You]")
	if msg.Role == messages.RoleModel {
		prefix = modelStyle.Styled("[Gemini]")
	}
	fmt.Printf("%s %s\n", prefix, msg.Text())
	for _, part := range msg.Parts {
		if part.IsImage() {
			fmt.Printf("  %s\n", dimStyle.Styled(fmt.Sprintf("(image: %s)", part.FileName)))
		}
	}
}

func printUsageFooter(sess *sessions.Session) {
	cost := sess.CostEstimate()
	fmt.Println(dimStyle.Styled(fmt.Sprintf("tokens: %d  queries: %d  est. cost: $%s",
		sess.TotalTokens(), sess.TotalQueries(), cost.StringFixed(4))))
}

// saveTempFile writes data to a fresh temp file and returns its path
func saveTempFile(data []byte, pattern string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func timeNow() time.Time {
	return time.Now()
}
