package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tqye/geminiecho/chat"
	"github.com/tqye/geminiecho/geo"
	"github.com/tqye/geminiecho/internal/log"
	"github.com/tqye/geminiecho/llm"
	"github.com/tqye/geminiecho/notify"
	"github.com/tqye/geminiecho/sessions"
	"github.com/tqye/geminiecho/translog"
	"github.com/tqye/geminiecho/tts"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:   "geminiecho",
		Usage:  "Chat with Gemini models from the terminal",
		Flags:  defineFlags(),
		Action: runCommand,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "User identity for session keying and quota",
			Value:   "guest",
		},
		&cli.StringFlag{
			Name:    "model",
			Aliases: []string{"m"},
			Usage:   "Model label (see /model for choices)",
			Value:   "Gemini 2.5 Pro",
		},
		&cli.Float64Flag{
			Name:  "temp",
			Usage: "Model temperature (0.1-2.0)",
			Value: 0.7,
		},
		&cli.StringFlag{
			Name:  "persona",
			Usage: "Persona preset selecting the system prompt",
		},
		&cli.StringFlag{
			Name:  "personas",
			Usage: "Path to a yaml persona catalog",
		},
		&cli.BoolFlag{
			Name:  "search",
			Usage: "Enable the web-search tool",
		},
		&cli.BoolFlag{
			Name:  "speak",
			Usage: "Synthesize replies to MP3 audio files",
		},
		&cli.StringFlag{
			Name:  "log",
			Usage: "Transcript log path (overrides CHAT_LOG)",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Suppress status output",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "Enable debug logging",
		},
	}
}

func runCommand(ctx context.Context, cmd *cli.Command) error {
	log.InitLogger(cmd.Bool("debug"))
	logger := log.GetLogger()

	envCfg, err := loadEnvConfig()
	if err != nil {
		return err
	}

	personas, err := loadPersonas(cmd.String("personas"))
	if err != nil {
		return err
	}

	persona := cmd.String("persona")
	store := sessions.NewStore(&sessions.Defaults{
		Settings: sessions.Settings{
			Model:        cmd.String("model"),
			Temperature:  cmd.Float64("temp"),
			SystemPrompt: personas.SystemPrompt(persona),
			Persona:      persona,
		},
		Limits: sessions.Limits{
			MaxMessages: envCfg.MaxMessages,
			TotalTrials: envCfg.TotalTrials,
			AllowList:   envCfg.ValidUsers,
		},
	})
	sess := store.Get(cmd.String("user"))
	sess.SetSearchEnabled(cmd.Bool("search"))

	gateway, err := llm.NewGeminiClient(ctx, envCfg.APIKey)
	if err != nil {
		return err
	}

	manager := chat.NewManager(gateway, gateway, chat.Config{
		Text2ImgEnabled: envCfg.Text2ImgEnabled,
		StripPersonas:   personas.StripContext,
	})

	logPath := envCfg.LogPath
	if cmd.String("log") != "" {
		logPath = cmd.String("log")
	}

	app := &App{
		manager:  manager,
		sess:     sess,
		personas: personas,
		mailer: notify.NewMailer(notify.Config{
			Host:     envCfg.SMTPHost,
			Port:     envCfg.SMTPPort,
			Username: envCfg.MailUser,
			Password: envCfg.MailPassword,
			From:     envCfg.MailUser,
			To:       envCfg.MailTo,
		}),
		chatLog: translog.New(logPath),
		speech:  tts.NewSynthesizer(),
		locator: geo.NewLocator(),
		speak:   cmd.Bool("speak"),
		quiet:   cmd.Bool("quiet"),
	}

	// Resolve the client IP and coarse location for transcript records.
	// Best-effort: the chat works fine without them.
	app.userIP = "unknown_ip"
	app.location = "unknown_location"
	if ip, err := app.locator.ClientIP(ctx); err == nil {
		app.userIP = ip
		if loc, err := app.locator.Lookup(ctx, ip); err == nil {
			app.location = loc.String()
		} else {
			logger.Debugw("geolocation lookup failed", "error", err)
		}
	} else {
		logger.Debugw("client ip lookup failed", "error", err)
	}

	return app.runInteractive(ctx)
}
