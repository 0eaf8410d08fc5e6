// Tutor Chat - terminal and browser client for the AI tutoring backend.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ashureev/tutor-chat/internal/apiclient"
	"github.com/ashureev/tutor-chat/internal/chat"
	"github.com/ashureev/tutor-chat/internal/config"
	"github.com/ashureev/tutor-chat/internal/identity"
	"github.com/ashureev/tutor-chat/internal/store"
	"github.com/ashureev/tutor-chat/internal/terminal"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type flags struct {
	apiURL string
	dbPath string
	addr   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	var cfg *config.Config

	root := &cobra.Command{
		Use:          "tutorchat",
		Short:        "Chat with the AI tutor from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			var err error
			cfg, err = loadConfig(f)
			if err != nil {
				return err
			}
			setupLogger(cfg.LogLevel)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runTerminal(ctx, cfg)
		},
	}

	root.PersistentFlags().StringVar(&f.apiURL, "api-url", "", "tutoring backend base URL (overrides TUTOR_API_URL)")
	root.PersistentFlags().StringVar(&f.dbPath, "db", "", "local state database path (overrides STATE_DB_PATH)")

	web := newWebCmd(&cfg)
	web.Flags().StringVar(&f.addr, "addr", "", "browser view listen address (overrides WEB_ADDR)")
	root.AddCommand(web, newStatusCmd(&cfg))
	return root
}

func loadConfig(f *flags) (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if f.apiURL != "" {
		cfg.APIBaseURL = strings.TrimRight(f.apiURL, "/")
	}
	if f.dbPath != "" {
		cfg.StateDBPath = f.dbPath
	}
	if f.addr != "" {
		cfg.Web.Addr = f.addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger installs the JSON logger. Logs go to stderr so they never mix
// with the chat transcript on stdout.
func setupLogger(level slog.Level) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// deps are the pieces shared by every command.
type deps struct {
	store    *store.SQLiteStore
	sessions *identity.Provider
	client   *apiclient.Client
}

func openDeps(ctx context.Context, cfg *config.Config) (*deps, error) {
	st, err := store.NewSQLite(cfg.StateDBPath)
	if err != nil {
		return nil, fmt.Errorf("open local state: %w", err)
	}
	if err := st.Ping(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("local state health check: %w", err)
	}

	return &deps{
		store:    st,
		sessions: identity.NewProvider(st, nil),
		client: apiclient.New(cfg.APIBaseURL,
			apiclient.WithHealthTimeout(cfg.HealthTimeout),
			apiclient.WithLogger(slog.Default()),
		),
	}, nil
}

func (d *deps) close() {
	if err := d.store.Close(); err != nil {
		slog.Error("Failed to close local state", "error", err)
	}
}

func runTerminal(ctx context.Context, cfg *config.Config) error {
	d, err := openDeps(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		return err
	}
	defer d.close()

	view := terminal.NewView(os.Stdout, !color.NoColor)
	ctrl, err := chat.NewController(chat.Config{
		Backend:              d.client,
		Sessions:             d.sessions,
		Views:                chat.ViewsOf(view),
		ErrorDisplayDuration: cfg.ErrorDisplayDuration,
		Logger:               slog.Default(),
	})
	if err != nil {
		return err
	}

	slog.Info("Starting terminal chat", "api_url", cfg.APIBaseURL)
	ctrl.Start(ctx)

	session := terminal.NewSession(ctrl, view, os.Stdin, slog.Default())
	session.SetResetter(d.sessions)
	return session.Run(ctx)
}
