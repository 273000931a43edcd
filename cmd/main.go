package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"calroster/internal/config"
	"calroster/internal/enrich"
	"calroster/internal/exporter"
	"calroster/internal/google"
	"calroster/internal/roster"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "calroster",
		Usage: "Export calendar events and build an enriched external-attendee roster.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "calroster.yaml", Usage: "Path to the configuration file."},
		},
		Commands: []*cli.Command{
			authCommand(),
			exportCommand(),
			enrichCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Logging.Level)
			logger.Info("Starting Google authentication flow.")

			oauthCfg, err := google.GetOAuthConfigForAuthFlow(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(oauthCfg, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			if err := google.SaveToken(cfg.Calendar.TokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", cfg.Calendar.TokenFile)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export calendar events in a date window to a CSV file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "First day of the window (YYYY-MM-DD)."},
			&cli.StringFlag{Name: "to", Usage: "Last day of the window, inclusive (YYYY-MM-DD)."},
			&cli.StringFlag{Name: "calendar", Usage: "Calendar ID to export."},
			&cli.StringFlag{Name: "output", Usage: "Destination CSV file."},
			&cli.StringFlag{Name: "ics", Usage: "Also write an ICS snapshot to this path."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			applyExportFlags(c, cfg)
			if err := cfg.ValidateExport(); err != nil {
				return err
			}
			logger := setupLogger(cfg.Logging.Level)

			window, err := google.NewWindow(cfg.Export.From, cfg.Export.To)
			if err != nil {
				return err
			}

			client, err := google.NewClient(c.Context, logger,
				os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"),
				cfg.Calendar.TokenFile)
			if err != nil {
				return fmt.Errorf("failed to create google client: %w", err)
			}

			exp := exporter.New(logger, client)
			return exp.Run(c.Context, cfg.Calendar.ID, window, cfg.Export.Output, cfg.Export.ICSOutput)
		},
	}
}

func enrichCommand() *cli.Command {
	return &cli.Command{
		Name:  "enrich",
		Usage: "Aggregate exported events into an enriched attendee roster.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Usage: "Events CSV produced by the export command."},
			&cli.StringFlag{Name: "output", Usage: "Destination roster CSV file."},
			&cli.StringFlag{Name: "cache", Usage: "Path to the enrichment cache database."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			applyEnrichFlags(c, cfg)
			if err := cfg.ValidateEnrich(); err != nil {
				return err
			}

			apiKey := os.Getenv("OPENAI_API_KEY")
			if apiKey == "" {
				return fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
			logger := setupLogger(cfg.Logging.Level)

			cache, err := enrich.OpenCache(cfg.Enrich.CachePath)
			if err != nil {
				return err
			}
			defer cache.Close()

			enricher := enrich.New(logger, enrich.NewOpenAIClient(apiKey, cfg.Enrich.Model))
			builder := roster.New(logger, enricher, cache, cfg.InternalSet())
			return builder.Build(c.Context, cfg.Enrich.Input, cfg.Enrich.Output)
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

// applyExportFlags overrides config values with any flags that were set.
func applyExportFlags(c *cli.Context, cfg *config.Config) {
	if v := c.String("from"); v != "" {
		cfg.Export.From = v
	}
	if v := c.String("to"); v != "" {
		cfg.Export.To = v
	}
	if v := c.String("calendar"); v != "" {
		cfg.Calendar.ID = v
	}
	if v := c.String("output"); v != "" {
		cfg.Export.Output = v
	}
	if v := c.String("ics"); v != "" {
		cfg.Export.ICSOutput = v
	}
}

func applyEnrichFlags(c *cli.Context, cfg *config.Config) {
	if v := c.String("input"); v != "" {
		cfg.Enrich.Input = v
	}
	if v := c.String("output"); v != "" {
		cfg.Enrich.Output = v
	}
	if v := c.String("cache"); v != "" {
		cfg.Enrich.CachePath = v
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
