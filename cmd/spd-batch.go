package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"spdqr/internal/logger"
	"spdqr/internal/spd"
)

var spdBatchCmd = &cobra.Command{
	Use:   "spd-batch [folder-path]",
	Short: "Render QR payment codes for every JSON invoice record in a folder",
	Long: `Process all *.json invoice records in a folder (recursively) and write
one PNG QR payment code per record.

Records without enough payment data (no bank details, amount, currency or
variable symbol) are reported as skipped; they are not errors.

Environment variables:
  BATCH_WORKERS - Number of parallel workers (default: 4)
  QR_SIZE, QR_MARGIN, QR_RECOVERY_LEVEL - see "spdqr spd --help"`,
	Example: `  # Write invoice-001.png next to invoice-001.json
  spdqr spd-batch ./invoices

  # Collect the images in one folder and keep a JSON report
  spdqr spd-batch ./invoices --out-dir ./qr --report report.json

  # Only check which records can be paid by QR
  spdqr spd-batch ./invoices --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runSPDBatch,
}

// BatchResult represents the result of processing a single record
type BatchResult struct {
	Filename       string `json:"file"`
	Output         string `json:"output,omitempty"`
	VariableSymbol string `json:"variable_symbol,omitempty"`
	Amount         string `json:"amount,omitempty"`
	Currency       string `json:"currency,omitempty"`
	Payload        string `json:"payload,omitempty"`
	Status         string `json:"status"` // "success", "skipped", "error"
	Error          string `json:"error,omitempty"`
	Index          int    `json:"-"`
}

// WorkerJob represents a record processing job
type WorkerJob struct {
	FilePath string
	Index    int
}

func init() {
	rootCmd.AddCommand(spdBatchCmd)

	spdBatchCmd.Flags().String("out-dir", "", "Write PNG files into this folder, mirroring subfolders, instead of next to each record")
	spdBatchCmd.Flags().String("report", "", "Write a JSON report of all results to this file")
	spdBatchCmd.Flags().Bool("dry-run", false, "Build payment strings but don't write PNG files")
}

func runSPDBatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("spd-batch")

	folderPath := args[0]
	outDir, _ := cmd.Flags().GetString("out-dir")
	reportPath, _ := cmd.Flags().GetString("report")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	folderInfo, err := os.Stat(folderPath)
	if err != nil {
		return fmt.Errorf("folder not found: %s", folderPath)
	}
	if !folderInfo.IsDir() {
		return fmt.Errorf("path is not a directory: %s", folderPath)
	}
	if outDir != "" && !dryRun {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output folder: %w", err)
		}
	}

	builder, err := newBuilder()
	if err != nil {
		return err
	}

	recordFiles, err := findRecordFiles(folderPath)
	if err != nil {
		return fmt.Errorf("failed to find record files: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(recordFiles) == 0 {
		fmt.Fprintln(out, "No JSON records found in folder.")
		return nil
	}

	numWorkers := batchWorkers()
	log.Info().
		Str("folder", folderPath).
		Str("out_dir", outDir).
		Bool("dry_run", dryRun).
		Int("records", len(recordFiles)).
		Int("workers", numWorkers).
		Msg("Starting QR payment batch")

	processor := batchProcessor{
		builder: builder,
		root:    folderPath,
		outDir:  outDir,
		dryRun:  dryRun,
		log:     log,
	}
	results := processor.run(recordFiles, numWorkers, out)

	successCount, skippedCount, errorCount := countResults(results)

	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "Rendered: %d\n", successCount)
	if skippedCount > 0 {
		fmt.Fprintf(out, "Skipped (insufficient payment data): %d\n", skippedCount)
	}
	if errorCount > 0 {
		fmt.Fprintf(out, "Errors: %d\n", errorCount)
	}
	fmt.Fprintln(out, strings.Repeat("=", 50))

	if reportPath != "" {
		if err := writeBatchReport(reportPath, results); err != nil {
			log.Error().Err(err).Str("report", reportPath).Msg("Failed to write batch report")
			return err
		}
	}

	log.Info().
		Int("total", len(recordFiles)).
		Int("success", successCount).
		Int("skipped", skippedCount).
		Int("errors", errorCount).
		Msg("QR payment batch completed")

	if errorCount > 0 {
		return fmt.Errorf("%d of %d records failed", errorCount, len(recordFiles))
	}
	return nil
}

// findRecordFiles finds all JSON files in the specified folder
func findRecordFiles(folderPath string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(folderPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".json") {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

type batchProcessor struct {
	builder *spd.Builder
	root    string
	outDir  string
	dryRun  bool
	log     zerolog.Logger
}

// process handles a single record file and returns the result
func (p *batchProcessor) process(path string) BatchResult {
	result := BatchResult{
		Filename: filepath.Base(path),
		Status:   "error",
	}
	log := logger.WithFile("spd-batch", path)

	rec, err := readRecord(path, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	var (
		payload *spd.Payload
		png     []byte
	)
	if p.dryRun {
		payload, err = p.builder.Payload(rec)
	} else {
		png, payload, err = p.builder.Render(rec)
	}
	if err != nil {
		result.Error = err.Error()
		if spd.IsInsufficientData(err) {
			result.Status = "skipped"
		}
		log.Debug().Err(err).Msg("No payment code for record")
		return result
	}
	result.Payload = payload.String()
	result.VariableSymbol, _ = payload.Value(spd.KeyVariableSymbol)
	result.Amount, _ = payload.Value(spd.KeyAmount)
	result.Currency, _ = payload.Value(spd.KeyCurrency)

	if p.dryRun {
		result.Status = "success"
		return result
	}

	output := p.outputPath(path)
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		result.Error = fmt.Sprintf("failed to create %s: %v", filepath.Dir(output), err)
		return result
	}
	if err := os.WriteFile(output, png, 0o644); err != nil {
		result.Error = fmt.Sprintf("failed to write %s: %v", output, err)
		return result
	}

	result.Output = output
	result.Status = "success"
	return result
}

// outputPath places the PNG next to the record, or under outDir at the
// record's path relative to the batch root so equal file names in different
// subfolders do not collide.
func (p *batchProcessor) outputPath(recordPath string) string {
	name := strings.TrimSuffix(filepath.Base(recordPath), filepath.Ext(recordPath)) + ".png"
	if p.outDir == "" {
		return filepath.Join(filepath.Dir(recordPath), name)
	}
	rel, err := filepath.Rel(p.root, filepath.Dir(recordPath))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = "."
	}
	return filepath.Join(p.outDir, rel, name)
}

// run processes records using a worker pool; results keep the input order
func (p *batchProcessor) run(files []string, numWorkers int, out io.Writer) []BatchResult {
	jobs := make(chan WorkerJob, len(files))
	results := make([]BatchResult, len(files))

	var processedCount int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				p.log.Debug().
					Int("worker", workerID).
					Str("file", job.FilePath).
					Int("index", job.Index+1).
					Msg("Worker processing record")

				result := p.process(job.FilePath)
				result.Index = job.Index
				results[job.Index] = result

				mu.Lock()
				processedCount++
				fmt.Fprintf(out, "[%d/%d] %s - %s", processedCount, len(files), result.Filename, getStatusMark(result.Status))
				if result.Error != "" {
					fmt.Fprintf(out, " (%s)", result.Error)
				} else {
					fmt.Fprintf(out, " (%s %s)", result.Amount, result.Currency)
				}
				fmt.Fprintln(out)
				mu.Unlock()
			}
		}(w)
	}

	for i, file := range files {
		jobs <- WorkerJob{FilePath: file, Index: i}
	}
	close(jobs)

	wg.Wait()

	return results
}

func countResults(results []BatchResult) (success, skipped, failed int) {
	for _, result := range results {
		switch result.Status {
		case "success":
			success++
		case "skipped":
			skipped++
		case "error":
			failed++
		}
	}
	return success, skipped, failed
}

func writeBatchReport(path string, results []BatchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// getStatusMark returns a marker for the processing status
func getStatusMark(status string) string {
	switch status {
	case "success":
		return "OK"
	case "skipped":
		return "SKIPPED"
	case "error":
		return "ERROR"
	default:
		return "?"
	}
}
