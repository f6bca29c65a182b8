package types

import (
	"time"

	"github.com/0xsequence/tps-reporter/pkg/benchmark"
)

// RunRecord is everything kept about one benchmark run.
type RunRecord struct {
	ID         string    `json:"id" yaml:"id"`
	Chain      string    `json:"chain" yaml:"chain"`
	ChainID    uint64    `json:"chain_id" yaml:"chain_id"`
	Submitter  string    `json:"submitter" yaml:"submitter"`
	Wallet     string    `json:"wallet" yaml:"wallet"`
	Contract   string    `json:"contract" yaml:"contract"`
	Target     string    `json:"target" yaml:"target"`
	Txns       int       `json:"txns" yaml:"txns"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	Report   benchmark.BatchReport        `json:"report" yaml:"report"`
	Outcomes []benchmark.OperationOutcome `json:"outcomes" yaml:"outcomes"`
}
