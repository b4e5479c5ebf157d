package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tqye/geminiecho/chat"
	"github.com/tqye/geminiecho/extract"
	"github.com/tqye/geminiecho/geo"
	"github.com/tqye/geminiecho/internal/log"
	"github.com/tqye/geminiecho/llm"
	"github.com/tqye/geminiecho/messages"
	"github.com/tqye/geminiecho/notify"
	"github.com/tqye/geminiecho/sessions"
	"github.com/tqye/geminiecho/translog"
	"github.com/tqye/geminiecho/tts"
)

// App wires the conversation manager to its collaborators for one
// interactive session
type App struct {
	manager  *chat.Manager
	sess     *sessions.Session
	personas *PersonaFile
	mailer   *notify.Mailer
	chatLog  *translog.Logger
	speech   *tts.Synthesizer
	locator  *geo.Locator

	userIP   string
	location string
	speak    bool
	quiet    bool
}

// runInteractive runs the chat loop until EOF or /quit
func (a *App) runInteractive(ctx context.Context) error {
	initColors()

	if !a.quiet && isTerminal() {
		fmt.Printf("%s\n", boldStyle.Styled("Gemini AI Echo Chamber"))
		fmt.Printf("%s\n", dimStyle.Styled(fmt.Sprintf("Hello %s. Type /help for commands.", a.sess.Name())))
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fmt.Print(userStyle.Styled("> "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := a.handleCommand(input); quit {
				return nil
			}
			continue
		}

		// Quota latch: block at the boundary, not in the manager
		if a.sess.QuotaExceeded() {
			fmt.Println(errorStyle.Styled("You have used up your trial quota. Please try again later or contact the administrator for an account."))
			continue
		}

		a.submit(ctx, input)
	}
}

// submit runs one turn and performs the post-turn side effects
func (a *App) submit(ctx context.Context, input string) {
	result, err := a.manager.SubmitTurn(ctx, a.sess, chat.TurnInput{
		Prompt:  input,
		DocText: a.sess.LoadedDoc(),
		Image:   a.sess.LoadedImage(),
	})
	if errors.Is(err, chat.ErrEmptyPrompt) {
		return
	}
	if err != nil {
		fmt.Println(errorStyle.Styled(fmt.Sprintf("Error: %v", err)))
		return
	}

	switch result.Kind {
	case chat.TurnImage:
		// Flat token charge only; image turns do not consume a trial query
		a.sess.RecordTokens(result.TokensUsed)
		a.showImageResult(input, result)
	default:
		a.sess.RecordUsage(result.TokensUsed)
		a.showChatResult(ctx, input, result)
	}

	if !a.quiet {
		printUsageFooter(a.sess)
	}
	if a.sess.QuotaExceeded() {
		fmt.Println(errorStyle.Styled("You have exceeded today's trial quota."))
	}
}

func (a *App) showImageResult(prompt string, result *chat.TurnResult) {
	reply := partsText(result.Reply)
	if result.ImageOK {
		for _, img := range result.Images {
			if path, err := saveTempFile(img, "geminiecho-*.jpg"); err == nil {
				fmt.Printf("%s %s\n", successStyle.Styled("Image saved:"), path)
			}
		}
		reply = "image generated"
	} else {
		fmt.Println(errorStyle.Styled(reply))
	}

	a.appendChatLog(prompt, reply, result.TokensUsed)
}

func (a *App) showChatResult(ctx context.Context, prompt string, result *chat.TurnResult) {
	renderParts(result.Reply)

	replyText := partsText(result.Reply)

	// Side effects after the turn is committed: failures are logged and
	// never roll the turn back.
	a.appendChatLog(prompt, replyText, result.TokensUsed)

	settings := a.sess.Settings()
	transcript := &notify.Transcript{
		Time:     timeNow(),
		User:     a.sess.Name(),
		IP:       a.userIP,
		Location: a.location,
		Model:    settings.Model,
		Prompt:   prompt,
		Reply:    replyText,
		Tokens:   result.TokensUsed,
	}
	subject := fmt.Sprintf("Gemini chat from %s", a.sess.Name())
	if err := a.mailer.Send(ctx, subject, transcript.Body(), firstImageJPEG(result.Reply)); err != nil {
		log.GetLogger().Debugw("transcript mail failed", "error", err)
	}

	if a.speak && replyText != "" {
		audio, lang, err := a.speech.Speak(ctx, replyText)
		switch {
		case errors.Is(err, tts.ErrUnsupportedLanguage):
			log.GetLogger().Debugw("tts skipped", "lang", lang)
		case err != nil:
			log.GetLogger().Debugw("tts failed", "error", err)
		default:
			if path, err := saveTempFile(audio, "geminiecho-*.mp3"); err == nil && !a.quiet {
				fmt.Printf("%s %s\n", dimStyle.Styled("Audio:"), path)
			}
		}
	}
}

func (a *App) appendChatLog(prompt, reply string, tokens uint64) {
	rec := translog.NewRecord(a.sess.Name(), a.userIP, prompt, reply, tokens)
	rec.UserIP = a.userIP
	rec.Location = a.location
	if err := a.chatLog.Append(rec); err != nil {
		// Logging is best-effort
		log.GetLogger().Debugw("transcript log append failed", "error", err)
	}
}

// handleCommand processes slash commands; returns true to quit
func (a *App) handleCommand(input string) bool {
	fields := strings.Fields(input)
	command := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch command {
	case "/exit", "/quit", "/q":
		return true

	case "/help":
		printHelp()

	case "/new":
		a.sess.ResetTopic()
		fmt.Println(successStyle.Styled("New topic started."))

	case "/file":
		if arg == "" {
			fmt.Println("Usage: /file <path>")
			break
		}
		a.loadFile(arg)

	case "/cleardoc":
		a.sess.ClearUploads()
		fmt.Println(successStyle.Styled("Uploads cleared."))

	case "/model", "/m":
		if arg == "" {
			fmt.Printf("Current model: %s\n", a.sess.Settings().Model)
			for _, label := range llm.Labels() {
				fmt.Printf("  %s\n", label)
			}
			break
		}
		a.switchModel(arg)

	case "/persona":
		if arg == "" {
			fmt.Printf("Current persona: %s\n", a.sess.Settings().Persona)
			for name := range a.personas.Personas {
				fmt.Printf("  %s\n", name)
			}
			break
		}
		a.sess.ApplySettings(sessions.Settings{
			Persona:      arg,
			SystemPrompt: a.personas.SystemPrompt(arg),
		})
		fmt.Printf("Persona set to: %s\n", arg)

	case "/temp", "/temperature":
		if arg == "" {
			fmt.Printf("Current temperature: %.2f\n", a.sess.Settings().Temperature)
			break
		}
		t, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			fmt.Println(errorStyle.Styled("Invalid temperature value"))
			break
		}
		a.sess.ApplySettings(sessions.Settings{Temperature: sessions.ClampTemperature(t)})
		fmt.Printf("Temperature set to: %.2f\n", a.sess.Settings().Temperature)

	case "/search":
		a.toggleSearch(arg)

	case "/usage":
		printUsageFooter(a.sess)

	case "/history", "/h":
		for _, msg := range a.sess.History() {
			renderMessage(msg)
		}

	default:
		fmt.Printf("Unknown command: %s (try /help)\n", command)
	}
	return false
}

func (a *App) loadFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Println(errorStyle.Styled(fmt.Sprintf("Cannot open %s: %v", path, err)))
		return
	}
	defer f.Close()

	part, err := extract.Extract(path, f)
	if err != nil {
		var extractErr *extract.ExtractError
		if errors.As(err, &extractErr) {
			fmt.Println(errorStyle.Styled(extractErr.Message))
		} else {
			fmt.Println(errorStyle.Styled(err.Error()))
		}
		return
	}

	if part.IsImage() {
		a.sess.SetLoadedImage(part)
		fmt.Printf("%s %s\n", successStyle.Styled("Image loaded:"), part.FileName)
		return
	}

	a.sess.SetLoadedDoc(part.Text)
	// Document context disables the search tool
	a.sess.SetSearchEnabled(false)
	fmt.Printf("%s %s (%d chars)\n", successStyle.Styled("Document loaded:"), part.FileName, len(part.Text))
}

func (a *App) switchModel(label string) {
	spec := llm.Resolve(label)
	a.sess.ApplySettings(sessions.Settings{Model: spec.Label})
	if spec.MultimodalOutput {
		// The experimental variant never uses the search tool
		a.sess.SetSearchEnabled(false)
	}
	if !spec.Attachments {
		a.sess.ClearUploads()
	}
	fmt.Printf("Switched to model: %s\n", spec.Label)
}

func (a *App) toggleSearch(arg string) {
	spec := llm.Resolve(a.sess.Settings().Model)
	switch strings.ToLower(arg) {
	case "on":
		if !spec.SearchCapable {
			fmt.Println(errorStyle.Styled("The selected model does not support search."))
			return
		}
		if a.sess.LoadedDoc() != "" {
			fmt.Println(errorStyle.Styled("Search is disabled while a document is loaded."))
			return
		}
		a.sess.SetSearchEnabled(true)
		fmt.Println(successStyle.Styled("Web search enabled."))
	case "off":
		a.sess.SetSearchEnabled(false)
		fmt.Println(successStyle.Styled("Web search disabled."))
	default:
		fmt.Printf("Web search: %v (usage: /search on|off)\n", a.sess.SearchEnabled())
	}
}

func printHelp() {
	fmt.Println(`Commands:
  /new               start a new topic (history cleared, settings kept)
  /file <path>       load a document or image for the next question
  /cleardoc          clear loaded documents and images
  /model [label]     show or switch the model
  /persona [name]    show or switch the persona preset
  /temp <0.1-2.0>    set the sampling temperature
  /search on|off     toggle the web-search tool
  /usage             show token usage and cost estimate
  /history           replay the conversation
  /quit              exit

Prefix a prompt with !!! to generate images instead of chatting.`)
}

// firstImageJPEG returns the decoded bytes of the first image reply part
func firstImageJPEG(parts []messages.Part) []byte {
	for _, part := range parts {
		if part.IsImage() {
			if data, err := base64.StdEncoding.DecodeString(part.ImageData); err == nil {
				return data
			}
		}
	}
	return nil
}

func partsText(parts []messages.Part) string {
	var sb strings.Builder
	for _, part := range parts {
		if part.IsText() {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
