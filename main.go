package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yakdar/formhub/catalog"
	"github.com/yakdar/formhub/config"
	"github.com/yakdar/formhub/server"
	"github.com/yakdar/formhub/site"
	"github.com/yakdar/formhub/templatex"
)

const defaultConfigPath = "config.json"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

type app struct {
	configPath string
	logOutput  io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{logOutput: os.Stdout}
	root := &cobra.Command{
		Use:          "formhub",
		Short:        "Searchable directory of survey form links",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", defaultConfigPath, "path to configuration file")

	root.AddCommand(
		a.serveCmd(),
		a.buildCmd(),
		a.searchCmd(),
		a.checkCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the form directory over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.setup()
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			// live=false in config means the deployment only wants the static output
			if !cfg.Live {
				return build(cmd.Context(), svc, cfg, logger)
			}
			logger.Info("starting", "live", cfg.Live, "version", SERVER_SIGNATURE)
			if err := server.New(cfg, svc, logger, SERVER_SIGNATURE).Start(cmd.Context()); err != nil {
				logger.Error("server", "error", err)
				return err
			}
			return nil
		},
	}
}

func (a *app) buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Render the form directory into static files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.setup()
			if err != nil {
				return err
			}
			cfg.Live = false
			svc, err := a.service(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			return build(cmd.Context(), svc, cfg, logger)
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Print the forms whose names contain query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.setup()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg, logger)
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			fc := catalog.Filter(cat, query)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(fc)
			}
			if catalog.NoMatches(fc) {
				_, err := fmt.Fprintf(out, "No forms found matching '%s'.\n", query)
				return err
			}
			for _, section := range fc.Sections {
				fmt.Fprintln(out, section.Name)
				for _, entry := range section.Entries {
					fmt.Fprintf(out, "  %s\t%s\n", entry.Name, entry.URL)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the filtered catalog as JSON")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.setup()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg, logger)
			if err != nil {
				return err
			}
			if _, err := templatex.Load(cfg.TemplateDir); err != nil {
				logger.Error("templates", "error", err)
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "catalog ok: %d categories, %d forms\n", cat.Len(), cat.EntryCount())
			if placeholders := cat.Placeholders(); len(placeholders) > 0 {
				fmt.Fprintf(out, "hidden placeholders: %s\n", strings.Join(placeholders, ", "))
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), SERVER_SIGNATURE)
			return err
		},
	}
}

// setup loads configuration. The default config path may be absent.
func (a *app) setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(a.configPath, a.configPath == defaultConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	return cfg, newLogger(a.logOutput, cfg.LogLevel), nil
}

func (a *app) service(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*site.Service, error) {
	cat, err := loadCatalog(cfg, logger)
	if err != nil {
		return nil, err
	}
	templates, err := templatex.Load(cfg.TemplateDir)
	if err != nil {
		logger.Error("templates", "error", err)
		return nil, err
	}
	svc := site.NewService(cfg, cat, templates, logger)
	if err := svc.Warm(ctx); err != nil {
		logger.Error("warm", "error", err)
		return nil, err
	}
	return svc, nil
}

func loadCatalog(cfg *config.Config, logger *slog.Logger) (*catalog.Catalog, error) {
	if cfg.Catalog == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(cfg.Catalog)
	if err != nil {
		logger.Error("catalog", "path", cfg.Catalog, "error", err)
		return nil, err
	}
	return cat, nil
}

func build(ctx context.Context, svc *site.Service, cfg *config.Config, logger *slog.Logger) error {
	if err := svc.BuildStatic(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Error("build", "error", err)
		}
		return err
	}
	logger.Info("static build completed", "output", cfg.OutputDir)
	return nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
