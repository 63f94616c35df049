package ports

import "go.trai.ch/rig/internal/core/domain"

// Journal records the most recent outcome of every target.
//
//go:generate go run go.uber.org/mock/mockgen -source=journal.go -destination=mocks/mock_journal.go -package=mocks
type Journal interface {
	// Get retrieves the entry for a target.
	// Returns nil, nil if the target has never run.
	Get(target string) (*domain.JournalEntry, error)

	// Put stores entries, replacing earlier entries for the same targets.
	Put(entries ...domain.JournalEntry) error

	// All returns every entry sorted by target name.
	All() ([]domain.JournalEntry, error)
}
