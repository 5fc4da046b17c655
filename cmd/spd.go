package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"spdqr/internal/logger"
	"spdqr/internal/qr"
	"spdqr/internal/record"
	"spdqr/internal/spd"
)

var spdCmd = &cobra.Command{
	Use:   "spd [record.json|-]",
	Short: "Build the QR payment string and code for one invoice record",
	Long: `Read one invoice record (a JSON object) and build its Short Payment
Descriptor. By default the PNG QR code is printed as a data URI; use
--output to write the PNG to a file or --payload-only to print the
SPD string itself.

Recognised fields:
  invoice_vs, invoice_ks, invoice_ss, payment_amount, payment_currency,
  iban, account_number, bank_code, name, issue_date, due_in, supplier{...},
  supplier_<field> (flattened supplier fallbacks)

Environment variables:
  QR_SIZE - image edge length in pixels (default: 300)
  QR_MARGIN - quiet zone in modules (default: 2)
  QR_RECOVERY_LEVEL - error correction L, M, Q or H (default: H)`,
	Example: `  # Print the SPD payment string
  spdqr spd invoice.json --payload-only

  # Print a data URI for embedding into HTML
  spdqr spd invoice.json

  # Write the QR code as PNG
  spdqr spd invoice.json -o invoice-qr.png

  # Read the record from stdin
  cat invoice.json | spdqr spd -`,
	Args: cobra.ExactArgs(1),
	RunE: runSPD,
}

func init() {
	rootCmd.AddCommand(spdCmd)

	spdCmd.Flags().StringP("output", "o", "", "Write the PNG QR code to this file")
	spdCmd.Flags().Bool("payload-only", false, "Print the SPD payment string instead of a QR code")
}

func runSPD(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("spd")

	outputPath, _ := cmd.Flags().GetString("output")
	payloadOnly, _ := cmd.Flags().GetBool("payload-only")
	source := args[0]

	log.Debug().
		Str("source", source).
		Str("output", outputPath).
		Bool("payload_only", payloadOnly).
		Msg("Building payment string")

	rec, err := readRecord(source, cmd.InOrStdin())
	if err != nil {
		return err
	}

	builder, err := newBuilder()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if payloadOnly {
		payload, err := builder.Payload(rec)
		if err != nil {
			return handleSPDError(err, log)
		}
		_, err = fmt.Fprintln(out, payload.String())
		return err
	}

	png, payload, err := builder.Render(rec)
	if err != nil {
		return handleSPDError(err, log)
	}

	vs, _ := payload.Value(spd.KeyVariableSymbol)
	if outputPath == "" {
		_, err = fmt.Fprintln(out, qr.DataURI(png))
		return err
	}

	if err := os.WriteFile(outputPath, png, 0o644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write QR code")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", outputPath).
		Str("variable_symbol", vs).
		Int("bytes", len(png)).
		Msg("QR payment code written")
	return nil
}

// readRecord decodes a JSON record from a file, or from stdin when source is "-".
func readRecord(source string, stdin io.Reader) (record.MapView, error) {
	if source == "-" {
		rec, err := record.Decode(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read record from stdin: %w", err)
		}
		return rec, nil
	}

	f, err := os.Open(source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("record file not found: %s", source)
		}
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}
	defer f.Close()

	rec, err := record.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", source, err)
	}
	return rec, nil
}

// handleSPDError provides user-friendly messages for payment string failures
func handleSPDError(err error, log zerolog.Logger) error {
	var payErr *spd.PaymentError
	field := ""
	if errors.As(err, &payErr) {
		field = payErr.Field
	}

	switch {
	case errors.Is(err, spd.ErrMissingMandatoryField):
		log.Warn().Str("field", field).Msg("Insufficient payment data")
		return fmt.Errorf("cannot build a payment string: %s is missing. A record needs invoice_vs, payment_amount, payment_currency and an iban or account_number + bank_code", field)
	case errors.Is(err, spd.ErrInvalidAmount):
		log.Warn().Err(err).Msg("Invalid payment amount")
		return fmt.Errorf("payment_amount is not a number: %w", err)
	case errors.Is(err, record.ErrMalformedRecord):
		return fmt.Errorf("input is not an invoice record: %w", err)
	case errors.Is(err, spd.ErrRasterizationFailed):
		return fmt.Errorf("QR code rendering failed. Try a larger QR_SIZE or a lower QR_RECOVERY_LEVEL: %w", err)
	default:
		return fmt.Errorf("payment string generation failed: %w", err)
	}
}
