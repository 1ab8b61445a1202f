package index

// BoardIndex defines the interface for board indexing operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks. The index mirrors the document
// store; it is never authoritative for board content.
type BoardIndex interface {
	UpsertBoard(row BoardRow, body string) error
	DeleteBoard(id string) error
	GetChecksum(id string) (string, error)
	AllChecksums() (map[string]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies BoardIndex at compile time.
var _ BoardIndex = (*DB)(nil)
