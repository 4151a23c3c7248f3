package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/catalog"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/config"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/logger"
)

var (
	cfg *config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "alibeectl",
	Short: "Alibee affiliate catalog CLI",
	Long:  "Query the affiliate catalog, generate promotion links and manage the database schema.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		level, _ := cmd.Flags().GetString("log-level")
		if level == "" {
			level = cfg.LogLevel
		}
		log = logger.NewWithWriter(config.ServiceName, level, os.Stderr)
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Overall command timeout")
}

// newCatalog builds the signing and transport pair from configuration.
func newCatalog() (*catalog.RequestBuilder, *catalog.Gateway) {
	return catalog.NewRequestBuilder(cfg.Credentials(), time.Now), catalog.NewGateway(cfg.Gateway(), log)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
