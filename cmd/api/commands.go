package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"recipecatalog/internal/api"
	"recipecatalog/internal/config"
	"recipecatalog/internal/logging"
	"recipecatalog/internal/recipe"
)

const moduleName = "recipes"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "recipes",
		Short:         "recipes serves a searchable recipe catalog",
		Long:          "recipes imports a bulk JSON recipe document into a SQL database and serves listing and search endpoints over HTTP.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("RECIPES_CONFIG"), "Path to a YAML config file")

	serve := newServeCmd(&configPath)
	root.RunE = serve.RunE
	root.AddCommand(serve, newImportCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

func newImportCmd(configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import recipes from a JSON document and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if file != "" {
				cfg.ImportFile = file
			}
			return runImport(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON document to import (defaults to the configured import file)")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logging.SetDefaultStructuredLoggerWithLevel(moduleName, version, cfg.LogLevel)
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*recipe.SQLStore, error) {
	store, err := recipe.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("error opening recipe store: %w", err)
	}
	return store, nil
}

func newRouter(cfg *config.Config, store *recipe.SQLStore) *gin.Engine {
	handler := api.NewHandler(store, recipe.NewImporter(store, cfg.ImportFile), cfg.QueryTimeout)
	return api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimit:      cfg.RateLimit,
		RateLimitBurst: cfg.RateLimitBurst,
	})
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if logging.ParseLevel(cfg.LogLevel) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	slog.Info("starting recipes api",
		"driver", cfg.Database.Driver,
		"addr", cfg.Addr(),
		"importFile", cfg.ImportFile,
	)

	srv := api.NewServer(api.ServerConfig{
		Addr:            cfg.Addr(),
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, newRouter(cfg, store))
	return srv.Run(ctx)
}

func runImport(ctx context.Context, cfg *config.Config, out io.Writer) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := recipe.NewImporter(store, cfg.ImportFile).ImportFile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %s\n", res)
	return nil
}
