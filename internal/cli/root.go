// Package cli implements the cartcalc command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/config"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/logging"
)

var (
	version = "dev"

	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "cartcalc",
	Short:         "Order cart calculator",
	Long:          "cartcalc prices shopping carts: subtotal, discount, shipping and tax.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logging.SetOutput(cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logging.SetLevel(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Exit runs Execute and exits non-zero on error.
func Exit(v string) {
	if err := Execute(v); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
