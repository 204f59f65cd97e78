package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pitchcraft/auth"
	"pitchcraft/config"
	"pitchcraft/generator"
	"pitchcraft/logger"
	"pitchcraft/pipeline"
	"pitchcraft/publisher"
	"pitchcraft/server"
	"pitchcraft/store"
)

// Color definitions for terminal output
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warningColor = color.New(color.FgYellow)
	headerColor  = color.New(color.FgMagenta, color.Bold)
)

// App holds the loaded configuration shared by every command.
type App struct {
	configFile string
	logLevel   string
	provider   string
	cfg        *config.Config
}

func main() {
	if err := newRootCmd(&App{}).Execute(); err != nil {
		errorColor.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pitchcraft",
		Short: "Turn startup ideas into pitch packages with a generative model",
		Long: `pitchcraft sends a startup idea to a text-generation model, parses the
structured pitch it returns (name, tagline, elevator pitch, problem, solution,
audience, landing copy or a full landing page) and stores it per owner.

Run "pitchcraft serve" for the HTTP API with live updates, or use the
generate, list, show and export commands locally.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || strings.HasPrefix(cmd.CommandPath(), "pitchcraft completion") {
				return nil
			}
			return app.load(cmd.Name() != "serve")
		},
	}

	rootCmd.PersistentFlags().StringVarP(&app.configFile, "config", "c", "", "config file (default ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&app.provider, "provider", "", "override llm.provider (gemini, openai, deepseek, mock)")

	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newGenerateCmd(app))
	rootCmd.AddCommand(newListCmd(app))
	rootCmd.AddCommand(newShowCmd(app))
	rootCmd.AddCommand(newExportCmd(app))
	return rootCmd
}

func (app *App) load(pretty bool) error {
	if app.provider != "" {
		if err := os.Setenv(config.EnvPrefix+"_LLM_PROVIDER", app.provider); err != nil {
			return err
		}
	}
	cfg, err := config.Load(app.configFile)
	if err != nil {
		return err
	}
	level := cfg.Logging.Level
	if app.logLevel != "" {
		level = app.logLevel
	}
	logger.Init(level, pretty || cfg.Logging.Pretty)
	app.cfg = cfg
	return nil
}

func buildLLM(cfg *config.Config) (generator.LLMClient, error) {
	if err := cfg.ValidateLLM(); err != nil {
		return nil, err
	}
	return generator.NewLLMFromSettings(cfg.LLMSettings())
}

// openService wires the model client, agent, database and repository. The
// returned close function releases the database.
func (app *App) openService() (*pipeline.Service, func(), error) {
	cfg := app.cfg
	llm, err := buildLLM(cfg)
	if err != nil {
		return nil, nil, err
	}

	fallback := generator.NewRandomFallback()
	if cfg.Fallback.Seed != 0 {
		fallback = generator.NewFallback(cfg.Fallback.Seed)
	}
	agent, err := generator.NewAgent(llm,
		generator.WithSchema(cfg.SchemaKind()),
		generator.WithTimeout(cfg.LLM.Timeout),
		generator.WithFallback(fallback),
		generator.WithProvider(cfg.LLM.Provider),
	)
	if err != nil {
		return nil, nil, err
	}

	repo, closeDB, err := app.openRepository()
	if err != nil {
		return nil, nil, err
	}

	svc, err := pipeline.NewService(agent, repo)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return svc, closeDB, nil
}

// openRepository opens the database for the commands that only read stored
// pitches; they need no model credentials.
func (app *App) openRepository() (*store.PitchRepository, func(), error) {
	cfg := app.cfg
	db, err := store.Open(store.Config{
		Path:     cfg.Database.Path,
		LogLevel: store.ParseLogLevel(cfg.Database.LogLevel),
	})
	if err != nil {
		return nil, nil, err
	}
	repo := store.NewPitchRepository(db, store.WithRetry(cfg.Repository.RetryCount, cfg.Repository.RetryDelay))
	return repo, func() {
		if err := store.Close(db); err != nil {
			logger.Error("failed to close database", err)
		}
	}, nil
}

func identityProvider(cfg *config.Config) (auth.Provider, error) {
	tokens, err := cfg.TokenMap()
	if err != nil {
		return nil, err
	}
	var chain auth.Chain
	if len(tokens) > 0 {
		chain = append(chain, auth.NewTokenProvider(tokens))
	}
	if cfg.Auth.AllowHeader {
		logger.Warn("trusting the " + auth.OwnerHeader + " header; do not expose this server publicly")
		chain = append(chain, auth.HeaderProvider{})
	}
	if len(chain) == 0 {
		return nil, errors.New("no identity source: set auth.tokens or auth.allow_header")
	}
	return chain, nil
}

func newServeCmd(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := app.openService()
			if err != nil {
				return err
			}
			defer closeDB()

			identity, err := identityProvider(app.cfg)
			if err != nil {
				return err
			}
			srvCfg := server.Config{
				Addr:            app.cfg.Server.Addr,
				ReadTimeout:     app.cfg.Server.ReadTimeout,
				WriteTimeout:    app.cfg.Server.WriteTimeout,
				GenerateTimeout: app.cfg.Server.GenerateTimeout,
				CORSOrigins:     app.cfg.Server.CORSOrigins,
			}
			if addr != "" {
				srvCfg.Addr = addr
			}
			srv, err := server.New(svc, identity, srvCfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func newGenerateCmd(app *App) *cobra.Command {
	var owner string
	var idea generator.Idea
	var dump bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a pitch for an idea and store it",
		Example: `  pitchcraft generate --title EcoTrack --description "carbon footprint tracker" --industry Technology --tone innovative
  pitchcraft generate --provider mock --idea "a marketplace for used climbing gear"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := app.openService()
			if err != nil {
				return err
			}
			defer closeDB()

			infoColor.Printf("Generating a %s pitch with %s...\n", svc.Schema(), app.cfg.LLM.Provider)
			rec, err := svc.GenerateAndStore(cmd.Context(), owner, idea)
			if err != nil {
				return err
			}
			if rec.UsedFallback {
				warningColor.Println("The model did not return a usable pitch; a template pitch was stored instead.")
			}
			successColor.Printf("Stored %s\n\n", rec.Path())
			if dump {
				return dumpRecord(rec)
			}
			return printRecord(rec)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "local", "owner id the pitch is stored under")
	cmd.Flags().StringVar(&idea.Title, "title", "", "idea title")
	cmd.Flags().StringVar(&idea.Description, "description", "", "idea description")
	cmd.Flags().StringVar(&idea.Industry, "industry", "", "industry: "+strings.Join(generator.Industries, ", "))
	cmd.Flags().StringVar(&idea.Tone, "tone", "", "tone: "+strings.Join(generator.Tones, ", "))
	cmd.Flags().StringVar(&idea.IdeaText, "idea", "", "free-text idea (sections schema)")
	cmd.Flags().BoolVar(&dump, "dump", false, "pretty-print the whole stored record")
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored pitches, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := app.openRepository()
			if err != nil {
				return err
			}
			defer closeDB()

			records, err := repo.List(cmd.Context(), owner)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				infoColor.Println("No pitches yet.")
				return nil
			}
			printList(records)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "local", "owner id")
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	var owner string
	var dump bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored pitch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := app.openRepository()
			if err != nil {
				return err
			}
			defer closeDB()

			rec, err := repo.Get(cmd.Context(), owner, args[0])
			if err != nil {
				return err
			}
			if dump {
				return dumpRecord(rec)
			}
			return printRecord(rec)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "local", "owner id")
	cmd.Flags().BoolVar(&dump, "dump", false, "pretty-print the whole stored record")
	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var owner, out string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a stored pitch as an HTML landing page and markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := app.openRepository()
			if err != nil {
				return err
			}
			defer closeDB()

			rec, err := repo.Get(cmd.Context(), owner, args[0])
			if err != nil {
				return err
			}
			dir := out
			if dir == "" {
				dir = app.cfg.Export.Dir
			}
			files, err := publisher.Exporter{Dir: dir}.Export(cmd.Context(), *rec)
			if err != nil {
				return err
			}
			successColor.Println("Exported:")
			fmt.Println("  " + files.HTMLPath)
			fmt.Println("  " + files.MarkdownPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "local", "owner id")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (overrides export.dir)")
	return cmd
}
