package benchmark

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCount       = errors.New("operation count must be at least 1")
	ErrNilSubmitter       = errors.New("submitter is required")
	ErrNilRequestSource   = errors.New("request source is required")
	errBatchCancelled     = errors.New("batch cancelled before dispatch")
	errConfirmUnavailable = errors.New("confirmation unavailable")
)

// OperationRequest is one write operation: where it goes and the encoded call.
type OperationRequest struct {
	Destination string `json:"destination" yaml:"destination"`
	Payload     []byte `json:"payload" yaml:"payload"`
}

// RequestSource yields the request for the i-th operation of a batch.
type RequestSource func(index int) OperationRequest

// Repeat returns a RequestSource that hands every operation the same request.
func Repeat(req OperationRequest) RequestSource {
	return func(int) OperationRequest {
		return req
	}
}

// Slot is an independent ordering token issued by a Submitter. Space identifies a
// nonce space (lane) and Nonce the position inside it.
type Slot struct {
	Space string `json:"space,omitempty"`
	Nonce uint64 `json:"nonce"`
}

// Handle identifies an accepted submission.
type Handle struct {
	ReferenceID string
	Slot        Slot
}

// Receipt is the definitive backend result of a confirmed operation.
type Receipt struct {
	Success  bool
	Status   uint64
	CostUsed uint64
}

// Submitter is the authenticated capability the engine drives. Implementations must
// be safe for concurrent use; every AcquireSlot call must return a token that does not
// contend with any other outstanding slot.
type Submitter interface {
	AcquireSlot(ctx context.Context) (Slot, error)
	Submit(ctx context.Context, slot Slot, req OperationRequest) (Handle, error)
	// Confirm blocks until the operation reaches a definitive state. A nil receipt
	// with a nil error means the backend answered without a usable confirmation.
	Confirm(ctx context.Context, handle Handle) (*Receipt, error)
}

type FailureKind string

const (
	FailureNone                  FailureKind = "none"
	FailureSubmitError           FailureKind = "submit_error"
	FailureConfirmError          FailureKind = "confirm_error"
	FailureAmbiguousConfirmation FailureKind = "ambiguous_confirmation"
	FailureExecutionRejected     FailureKind = "execution_rejected"
)

// OperationOutcome is the immutable result of one executor run.
type OperationOutcome struct {
	Success     bool        `json:"success" yaml:"success"`
	Failure     FailureKind `json:"failure" yaml:"failure"`
	LatencyMs   *float64    `json:"latency_ms,omitempty" yaml:"latency_ms,omitempty"`
	CostUsed    *uint64     `json:"cost_used,omitempty" yaml:"cost_used,omitempty"`
	ReferenceID string      `json:"reference_id,omitempty" yaml:"reference_id,omitempty"`
	Error       string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// Batch is the raw output of a dispatch run, before aggregation.
type Batch struct {
	Outcomes    []OperationOutcome
	TotalTimeMs float64
	StartedAt   time.Time
	FinishedAt  time.Time
}

// BatchReport is the aggregate view of a completed batch.
type BatchReport struct {
	Attempted int `json:"attempted" yaml:"attempted"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`

	TotalTimeMs float64 `json:"total_time_ms" yaml:"total_time_ms"`
	ErrorRate   float64 `json:"error_rate" yaml:"error_rate"`

	P99LatencyMs    *float64 `json:"p99_latency_ms" yaml:"p99_latency_ms"`
	MinLatencyMs    *float64 `json:"min_latency_ms" yaml:"min_latency_ms"`
	MaxLatencyMs    *float64 `json:"max_latency_ms" yaml:"max_latency_ms"`
	MeanLatencyMs   *float64 `json:"mean_latency_ms" yaml:"mean_latency_ms"`
	MedianLatencyMs *float64 `json:"median_latency_ms" yaml:"median_latency_ms"`

	ThroughputPerSec  float64  `json:"throughput_per_sec" yaml:"throughput_per_sec"`
	TotalCost         uint64   `json:"total_cost" yaml:"total_cost"`
	AvgCostPerSuccess *float64 `json:"avg_cost_per_success" yaml:"avg_cost_per_success"`
	CostPerSec        float64  `json:"cost_per_sec" yaml:"cost_per_sec"`

	FailuresByKind map[FailureKind]int `json:"failures_by_kind,omitempty" yaml:"failures_by_kind,omitempty"`
}

// Degenerate reports whether no operation succeeded. Percentiles, averages and
// throughput carry no information in that state.
func (r BatchReport) Degenerate() bool {
	return r.Succeeded == 0
}
