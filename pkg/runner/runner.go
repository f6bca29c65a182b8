package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/0xsequence/tps-reporter/pkg/benchmark"
	"github.com/0xsequence/tps-reporter/pkg/chain"
	"github.com/0xsequence/tps-reporter/pkg/client"
	"github.com/0xsequence/tps-reporter/pkg/config"
	"github.com/0xsequence/tps-reporter/pkg/constant"
	"github.com/0xsequence/tps-reporter/pkg/logger"
	"github.com/0xsequence/tps-reporter/pkg/messaging"
	"github.com/0xsequence/tps-reporter/pkg/report"
	"github.com/0xsequence/tps-reporter/pkg/storage"
	"github.com/0xsequence/tps-reporter/pkg/types"
	"github.com/google/uuid"
)

const defaultProgressInterval = 10 * time.Second

// Options describe one benchmark run.
type Options struct {
	Chain         string
	Target        string
	Contract      string
	Txns          int
	SubmitterMode string
	Wallet        string
	OutputFile    string
	Format        string
}

// Runner wires a submitter to the dispatch engine and handles everything around
// a run: rendering, output files and persistence.
type Runner struct {
	opts      Options
	chain     chain.Chain
	request   benchmark.OperationRequest
	submitter benchmark.Submitter

	runs             *storage.RunStore
	queue            messaging.MessageQueue
	out              io.Writer
	progressInterval time.Duration
	dispatchOpts     []benchmark.DispatcherOption
}

type Option func(*Runner)

func WithRunStore(runs *storage.RunStore) Option {
	return func(r *Runner) {
		r.runs = runs
	}
}

// WithQueue publishes each completed run record.
func WithQueue(queue messaging.MessageQueue) Option {
	return func(r *Runner) {
		r.queue = queue
	}
}

func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

func WithProgressInterval(d time.Duration) Option {
	return func(r *Runner) {
		r.progressInterval = d
	}
}

func WithDispatcherOptions(opts ...benchmark.DispatcherOption) Option {
	return func(r *Runner) {
		r.dispatchOpts = append(r.dispatchOpts, opts...)
	}
}

// New validates opts and encodes the mint call once for the whole run.
func New(opts Options, submitter benchmark.Submitter, options ...Option) (*Runner, error) {
	if submitter == nil {
		return nil, benchmark.ErrNilSubmitter
	}
	if opts.Txns < 1 {
		return nil, fmt.Errorf("%w: got %d", benchmark.ErrInvalidCount, opts.Txns)
	}

	c, err := chain.Lookup(opts.Chain)
	if err != nil {
		return nil, err
	}
	contract, err := c.ResolveContract(opts.Contract)
	if err != nil {
		return nil, err
	}
	target, err := chain.ParseAddress(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	payload, err := client.DefaultMintPayload(target)
	if err != nil {
		return nil, err
	}
	if opts.Format == "" {
		opts.Format = config.FormatText
	}
	opts.Chain = c.Name
	opts.Contract = contract.Hex()
	opts.Target = target.Hex()

	r := &Runner{
		opts:             opts,
		chain:            c,
		request:          benchmark.OperationRequest{Destination: contract.Hex(), Payload: payload},
		submitter:        submitter,
		out:              os.Stdout,
		progressInterval: defaultProgressInterval,
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Run fires the batch, renders the report and persists the run. Persistence and
// publishing failures are logged, the record is still returned.
func (r *Runner) Run(ctx context.Context) (*types.RunRecord, error) {
	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}

	logger.Info("Starting mint benchmark",
		"run_id", runID.String(),
		"chain", r.chain.Name,
		"txns", r.opts.Txns,
		"submitter", r.opts.SubmitterMode,
		"contract", r.opts.Contract,
		"target", r.opts.Target,
	)

	var settled atomic.Int64
	stop := r.startProgress(&settled)
	dispatcher := benchmark.NewDispatcher(append(r.dispatchOpts, benchmark.WithProgress(func(int, int) {
		settled.Add(1)
	}))...)

	batch, err := dispatcher.RunBatch(ctx, r.submitter, benchmark.Repeat(r.request), r.opts.Txns)
	stop()
	if err != nil {
		return nil, err
	}

	run := &types.RunRecord{
		ID:         runID.String(),
		Chain:      r.chain.Name,
		ChainID:    r.chain.ID,
		Submitter:  r.opts.SubmitterMode,
		Wallet:     r.opts.Wallet,
		Contract:   r.opts.Contract,
		Target:     r.opts.Target,
		Txns:       r.opts.Txns,
		StartedAt:  batch.StartedAt,
		FinishedAt: batch.FinishedAt,
		Report:     benchmark.Summarize(batch.Outcomes, batch.TotalTimeMs),
		Outcomes:   batch.Outcomes,
	}

	logger.Info("Benchmark finished",
		"run_id", run.ID,
		"succeeded", run.Report.Succeeded,
		"failed", run.Report.Failed,
		"total_time_ms", run.Report.TotalTimeMs,
	)

	if err := r.render(run); err != nil {
		return run, err
	}
	// A cancelled run is still recorded.
	r.persist(context.WithoutCancel(ctx), run)
	return run, nil
}

// RunSingle sends one transaction and prints its outcome.
func (r *Runner) RunSingle(ctx context.Context) (benchmark.OperationOutcome, error) {
	logger.Info("Sending single mint", "chain", r.chain.Name, "contract", r.opts.Contract)

	outcome, err := benchmark.NewDispatcher(r.dispatchOpts...).RunSingle(ctx, r.submitter, r.request)
	if err != nil {
		return outcome, err
	}
	return outcome, report.Single(r.out, outcome)
}

func (r *Runner) render(run *types.RunRecord) error {
	if err := report.Encode(r.out, run, r.opts.Format); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if r.opts.OutputFile == "" {
		return nil
	}

	var buf bytes.Buffer
	if err := report.Encode(&buf, run, r.opts.Format); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := report.AppendToFile(r.opts.OutputFile, buf.String()); err != nil {
		return fmt.Errorf("write report to %s: %w", r.opts.OutputFile, err)
	}
	logger.Info("Benchmark results written", "file", r.opts.OutputFile)
	return nil
}

func (r *Runner) persist(ctx context.Context, run *types.RunRecord) {
	if r.runs != nil {
		if err := r.runs.Save(run); err != nil {
			logger.Error("Failed to persist run", err, "run_id", run.ID)
		}
	}

	if r.queue != nil {
		data, err := json.Marshal(run)
		if err != nil {
			logger.Error("Failed to encode run", err, "run_id", run.ID)
			return
		}
		err = r.queue.Enqueue(ctx, constant.FormatRunCompletedTopic(run.Chain), data, &messaging.EnqueueOptions{
			IdempotentKey: run.ID,
		})
		if err != nil {
			logger.Error("Failed to publish run", err, "run_id", run.ID)
		}
	}
}

func (r *Runner) startProgress(settled *atomic.Int64) (stop func()) {
	if r.progressInterval <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(r.progressInterval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				logger.Info("Progress", "settled", settled.Load(), "total", r.opts.Txns)
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
