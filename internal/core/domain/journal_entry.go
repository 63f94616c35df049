package domain

import "time"

// JournalEntry is the persisted record of a target's most recent run.
type JournalEntry struct {
	Target       string        `json:"target,omitzero"`
	Status       TargetStatus  `json:"status,omitzero"`
	ExitCode     int           `json:"exit_code,omitzero"`
	Duration     time.Duration `json:"duration,omitzero"`
	OutputDigest string        `json:"output_digest,omitzero"`
	Timestamp    time.Time     `json:"timestamp,omitzero"`
}

// NewJournalEntry converts a TargetResult into a JournalEntry stamped with at.
func NewJournalEntry(res TargetResult, at time.Time) JournalEntry {
	return JournalEntry{
		Target:       res.Target,
		Status:       res.Status,
		ExitCode:     res.ExitCode,
		Duration:     res.Duration,
		OutputDigest: res.OutputDigest,
		Timestamp:    at,
	}
}
