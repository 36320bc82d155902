package ledger

// Backend selection mirrors the DATA_BACKEND configuration knob: the ledger
// is an external collaborator, and which implementation backs it is a
// deployment decision, not an engine concern.

// BackendType identifies a ledger implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid reports whether the backend type is known.
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result bundles an opened reader with its cleanup function.
type Result struct {
	Reader  Reader
	Cleanup CleanupFunc
}
