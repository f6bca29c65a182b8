package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/0xsequence/tps-reporter/pkg/benchmark"
	"github.com/0xsequence/tps-reporter/pkg/config"
	"github.com/0xsequence/tps-reporter/pkg/filesystem"
	"github.com/0xsequence/tps-reporter/pkg/logger"
	"github.com/0xsequence/tps-reporter/pkg/types"
	"gopkg.in/yaml.v3"
)

const notAvailable = "N/A"

// Text renders the human readable summary of a run.
func Text(w io.Writer, run *types.RunRecord) error {
	r := run.Report

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("===============================\n")
	b.WriteString(fmt.Sprintf("%s MINT BENCHMARK RESULTS SUMMARY\n", strings.ToUpper(run.Chain)))
	b.WriteString("===============================\n")
	b.WriteString(fmt.Sprintf("Run ID: %s\n", run.ID))
	b.WriteString(fmt.Sprintf("Timestamp: %s\n", run.StartedAt.Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf("Chain: %s (%d)\n", run.Chain, run.ChainID))
	b.WriteString(fmt.Sprintf("Submitter: %s\n", run.Submitter))
	b.WriteString(fmt.Sprintf("Wallet: %s\n", run.Wallet))
	b.WriteString(fmt.Sprintf("Contract: %s\n", run.Contract))
	b.WriteString(fmt.Sprintf("Target: %s\n", run.Target))
	b.WriteString(fmt.Sprintf("Total benchmark time: %s\n", formatMs(r.TotalTimeMs)))
	b.WriteString(fmt.Sprintf("Total transactions sent: %d\n", r.Attempted))
	b.WriteString(fmt.Sprintf("Successful completions: %d\n", r.Succeeded))
	b.WriteString(fmt.Sprintf("Failed transactions: %d\n", r.Failed))
	b.WriteString(fmt.Sprintf("Success rate: %.2f%%\n", 100.0-r.ErrorRate))
	b.WriteString(fmt.Sprintf("Error rate: %.2f%%\n", r.ErrorRate))
	b.WriteString(fmt.Sprintf("Throughput: %.2f tx/s\n", r.ThroughputPerSec))

	b.WriteString("\n")
	b.WriteString("------------------------------\n")
	b.WriteString("LATENCY\n")
	b.WriteString("------------------------------\n")
	b.WriteString(fmt.Sprintf("P99: %s\n", formatOptionalMs(r.P99LatencyMs)))
	b.WriteString(fmt.Sprintf("Median: %s\n", formatOptionalMs(r.MedianLatencyMs)))
	b.WriteString(fmt.Sprintf("Average: %s\n", formatOptionalMs(r.MeanLatencyMs)))
	b.WriteString(fmt.Sprintf("Fastest: %s\n", formatOptionalMs(r.MinLatencyMs)))
	b.WriteString(fmt.Sprintf("Slowest: %s\n", formatOptionalMs(r.MaxLatencyMs)))

	b.WriteString("\n")
	b.WriteString("------------------------------\n")
	b.WriteString("GAS\n")
	b.WriteString("------------------------------\n")
	b.WriteString(fmt.Sprintf("Total gas used: %d\n", r.TotalCost))
	if r.AvgCostPerSuccess != nil {
		b.WriteString(fmt.Sprintf("Average gas per transaction: %.2f\n", *r.AvgCostPerSuccess))
	} else {
		b.WriteString(fmt.Sprintf("Average gas per transaction: %s\n", notAvailable))
	}
	b.WriteString(fmt.Sprintf("Gas per second: %.2f\n", r.CostPerSec))

	if r.Failed > 0 {
		b.WriteString("\n")
		b.WriteString("------------------------------\n")
		b.WriteString("FAILURES\n")
		b.WriteString("------------------------------\n")
		kinds := make([]string, 0, len(r.FailuresByKind))
		for kind := range r.FailuresByKind {
			kinds = append(kinds, string(kind))
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			b.WriteString(fmt.Sprintf("%s: %d\n", kind, r.FailuresByKind[benchmark.FailureKind(kind)]))
		}
		for _, o := range run.Outcomes {
			if o.Success {
				continue
			}
			ref := o.ReferenceID
			if ref == "" {
				ref = "-"
			}
			b.WriteString(fmt.Sprintf("  [%s] %s: %s\n", o.Failure, ref, o.Error))
		}
	}

	if r.Degenerate() {
		b.WriteString("\nNo transaction succeeded, latency and throughput are undefined.\n")
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// Single renders the outcome of a one-transaction run.
func Single(w io.Writer, outcome benchmark.OperationOutcome) error {
	var b strings.Builder
	switch {
	case outcome.Success:
		b.WriteString(fmt.Sprintf("Transaction completed: %s\n", outcome.ReferenceID))
	case outcome.Failure == benchmark.FailureExecutionRejected:
		b.WriteString(fmt.Sprintf("Unexpected status: %s (%s)\n", outcome.Error, outcome.ReferenceID))
	default:
		b.WriteString(fmt.Sprintf("Transaction failed [%s]: %s\n", outcome.Failure, outcome.Error))
		if outcome.ReferenceID != "" {
			b.WriteString(fmt.Sprintf("Reference: %s\n", outcome.ReferenceID))
		}
	}
	b.WriteString(fmt.Sprintf("Transaction time: %s\n", formatOptionalMs(outcome.LatencyMs)))
	if outcome.CostUsed != nil {
		b.WriteString(fmt.Sprintf("Gas used: %d\n", *outcome.CostUsed))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Encode writes run in the requested format.
func Encode(w io.Writer, run *types.RunRecord, format string) error {
	switch format {
	case config.FormatText, "":
		return Text(w, run)
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(run); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// AppendToFile appends content to outputFile followed by a run separator.
func AppendToFile(outputFile, content string) (err error) {
	if err := filesystem.ValidateFilePath(outputFile); err != nil {
		return err
	}
	if err := filesystem.EnsureParentDir(outputFile); err != nil {
		return err
	}

	file, err := os.OpenFile(outputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			logger.Error("failed to close file", cerr)
			if err == nil {
				err = cerr
			}
		}
	}()

	if _, err := file.WriteString(content); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}

	separator := fmt.Sprintf("\n%s\n\n", strings.Repeat("=", 80))
	if _, err := file.WriteString(separator); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}

	return nil
}

func formatMs(ms float64) string {
	return time.Duration(ms * float64(time.Millisecond)).Round(time.Microsecond).String()
}

func formatOptionalMs(ms *float64) string {
	if ms == nil {
		return notAvailable
	}
	return formatMs(*ms)
}
