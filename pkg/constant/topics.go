package constant

import "fmt"

// Relayer request subjects, one per chain
const (
	relaySendPrefix   = "relayer.send"
	relayStatusPrefix = "relayer.status"
)

// Completed run records
const (
	RunStreamName     = "tps-runs"
	runCompletedRoot  = "tps.runs"
	RunCompletedTopic = runCompletedRoot + ".*"
)

// FormatRelaySendTopic creates the send subject for a chain
func FormatRelaySendTopic(chain string) string {
	return fmt.Sprintf("%s.%s", relaySendPrefix, chain)
}

// FormatRelayStatusTopic creates the status subject for a chain
func FormatRelayStatusTopic(chain string) string {
	return fmt.Sprintf("%s.%s", relayStatusPrefix, chain)
}

// FormatRunCompletedTopic creates the run record subject for a chain
func FormatRunCompletedTopic(chain string) string {
	return fmt.Sprintf("%s.%s", runCompletedRoot, chain)
}
