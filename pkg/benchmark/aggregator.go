package benchmark

import (
	"slices"
)

// Summarize reduces a completed batch into a report. It does not modify outcomes
// and returns the same report for the same inputs. A batch with no successful
// operation yields a degenerate report with counts only.
func Summarize(outcomes []OperationOutcome, totalTimeMs float64) BatchReport {
	report := BatchReport{
		Attempted:   len(outcomes),
		TotalTimeMs: totalTimeMs,
	}

	var latencies []float64
	var totalCost uint64
	for _, outcome := range outcomes {
		if outcome.Success {
			report.Succeeded++
			if outcome.LatencyMs != nil {
				latencies = append(latencies, *outcome.LatencyMs)
			}
			if outcome.CostUsed != nil {
				totalCost += *outcome.CostUsed
			}
			continue
		}

		report.Failed++
		if report.FailuresByKind == nil {
			report.FailuresByKind = make(map[FailureKind]int)
		}
		report.FailuresByKind[outcome.Failure]++
	}

	if report.Attempted > 0 {
		report.ErrorRate = float64(report.Failed) / float64(report.Attempted) * 100
	}
	if report.Succeeded == 0 {
		return report
	}

	report.TotalCost = totalCost
	avgCost := float64(totalCost) / float64(report.Succeeded)
	report.AvgCostPerSuccess = &avgCost

	if totalTimeMs > 0 {
		seconds := totalTimeMs / 1000
		report.ThroughputPerSec = float64(report.Succeeded) / seconds
		report.CostPerSec = float64(totalCost) / seconds
	}

	if len(latencies) > 0 {
		slices.Sort(latencies)
		report.P99LatencyMs = ptr(latencies[P99Index(len(latencies))])
		report.MinLatencyMs = ptr(latencies[0])
		report.MaxLatencyMs = ptr(latencies[len(latencies)-1])
		report.MeanLatencyMs = ptr(mean(latencies))
		report.MedianLatencyMs = ptr(median(latencies))
	}

	return report
}

// P99Index returns the position of the 99th percentile in an ascending sample of
// n values: max(0, floor(n*0.99)-1). This nearest-rank estimator resolves ties
// toward the lower value, so n=1 gives 0, n=10 gives 8 and n=100 gives 98.
func P99Index(n int) int {
	return max(0, n*99/100-1)
}

func mean(sorted []float64) float64 {
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(len(sorted))
}

func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func ptr[T any](v T) *T {
	return &v
}
