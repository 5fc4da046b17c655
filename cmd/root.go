package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spdqr/internal/config"
	"spdqr/internal/logger"
	"spdqr/internal/qr"
	"spdqr/internal/spd"
)

var version = "1.0.0"

// appConfig is nil when configuration could not be loaded; commands then use
// built-in defaults.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "spdqr",
	Short: "spdqr - Czech QR payment codes (SPD) for invoices",
	Long: `spdqr turns invoice records into Short Payment Descriptor strings
("QR Platba") and renders them as scannable QR codes.

Records are JSON objects carrying invoice_vs, payment_amount,
payment_currency and bank details (iban, or account_number + bank_code),
either directly or on a nested "supplier" object.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("spdqr executed without subcommand")

		fmt.Println("Use --help to see available commands and options.")
	},
}

// Execute runs the root command with the loaded configuration, which may be nil.
func Execute(cfg *config.Config) {
	log := logger.WithComponent("cmd")
	appConfig = cfg

	if err := rootCmd.Execute(); err != nil {
		log.Debug().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

// newBuilder creates a payment string builder honouring QR_* settings.
func newBuilder() (*spd.Builder, error) {
	if appConfig == nil {
		return spd.NewBuilder(), nil
	}
	opts, err := appConfig.GetQROptions()
	if err != nil {
		return nil, fmt.Errorf("invalid QR configuration: %w", err)
	}
	return spd.NewBuilderWithDeps(qr.NewEncoder(), opts), nil
}

func batchWorkers() int {
	if appConfig == nil {
		return 4
	}
	return appConfig.BatchWorkers
}
