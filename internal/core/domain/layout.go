package domain

import "path/filepath"

const rigDirName = ".rig"

// DefaultRigPath returns the directory holding rig's local state.
func DefaultRigPath() string {
	return rigDirName
}

// DefaultJournalPath returns the default location of the run journal.
func DefaultJournalPath() string {
	return filepath.Join(rigDirName, "journal.json")
}
