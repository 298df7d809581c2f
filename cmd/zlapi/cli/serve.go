package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zachlagden/zlapi/internal/config"
	"github.com/zachlagden/zlapi/internal/keystore"
	"github.com/zachlagden/zlapi/internal/lastfm"
	"github.com/zachlagden/zlapi/internal/server"
	"github.com/zachlagden/zlapi/internal/service"
)

const banner = `
     _             _
 ___| | __ _ _ __ (_)
|_  / |/ _` + "`" + ` | '_ \| |
 / /| | (_| | |_) | |
/___|_|\__,_| .__/|_|
            |_|
`

func newServeCmd(version string) *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the zlapi HTTP server",
		Long:  "Start the HTTP server that exposes the activity, image and key-administration endpoints.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(version, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 43333, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(version string, dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	logLevel := slog.LevelInfo
	if dev {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Auth.MasterKey == "" {
		logger.Warn("no master key configured - key administration endpoints are disabled")
	}

	store, err := keystore.Open(cfg.Keys.Path)
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	logger.Info("key store opened", "path", store.Path(), "keys", store.Len())

	auth := service.NewAuthenticator(store, cfg.Auth.MasterKey)
	lfm := lastfm.New(cfg.LastFM.BaseURL, cfg.LastFM.Params, nil)

	srv := server.New(cfg, version, store, auth, lfm, logger)

	fmt.Printf("→ zlapi %s\n", version)
	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ OpenAPI:  http://%s:%d/openapi.json\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:   http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Issued API keys: %d\n", store.Len())
	fmt.Println()

	return srv.ListenAndServe()
}
