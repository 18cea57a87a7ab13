package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
	"go.uber.org/zap"

	"masterybox/internal/cdragon"
	"masterybox/internal/config"
	"masterybox/internal/league"
	"masterybox/internal/logging"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func (f *globalFlags) load() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "masterybox",
		Short:         "Tracks League client state for the mastery chest overlay",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(flags)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "masterybox.yaml", "Path to the YAML config file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	cmd.AddCommand(guiCmd(flags), watchCmd(flags), queueCmd(flags), rolesCmd(flags))
	return cmd
}

func guiCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Run the desktop overlay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(flags)
		},
	}
}

func watchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Track the client headlessly and log every update",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			app, err := NewApp(cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()
			defer app.LogUpdates()()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("Watching for client", zap.String("process", cfg.ProcessName))
			return app.Run(ctx)
		},
	}
}

func queueCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "queue <id>",
		Short: "Describe a queue id using CommunityDragon metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("parse queue id: %w", err)
			}
			return withMetadata(cmd.Context(), flags, func(ctx context.Context, meta *cdragon.Cache) error {
				q, err := meta.Describe(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", q.ID, q.Name, q.Description)
				return nil
			})
		},
	}
}

func rolesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "roles <role>",
		Short: "List champion ids played in a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := league.ParseRole(args[0])
			if err != nil {
				return err
			}
			return withMetadata(cmd.Context(), flags, func(ctx context.Context, meta *cdragon.Cache) error {
				ids, err := meta.ChampionsByRole(ctx, role)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
}

func withMetadata(ctx context.Context, flags *globalFlags, fn func(context.Context, *cdragon.Cache) error) error {
	cfg, logger, err := flags.load()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	meta := cdragon.New(cdragon.Options{
		BaseURL: cfg.CDragonBaseURL,
		Version: cfg.CDragonVersion,
		Timeout: cfg.HTTPTimeout,
	}, store, logger)
	return fn(ctx, meta)
}

func runGUI(flags *globalFlags) error {
	cfg, logger, err := flags.load()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}

	return wails.Run(&options.App{
		Title:         "MasteryBox",
		Width:         280,
		Height:        160,
		StartHidden:   false,
		Frameless:     true,
		AlwaysOnTop:   true,
		DisableResize: true,
		AssetServer: &assetserver.Options{
			Handler: http.HandlerFunc(serveOverlay),
		},
		BackgroundColour: &options.RGBA{R: 0, G: 0, B: 0, A: 0},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind: []interface{}{
			app,
		},
		Windows: &windows.Options{
			DisableWindowIcon:                 true,
			WebviewIsTransparent:              true,
			WindowIsTranslucent:               true,
			DisableFramelessWindowDecorations: true,
		},
	})
}
