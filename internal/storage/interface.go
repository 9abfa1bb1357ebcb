package storage

// StorageInterface defines the contract for artifact storage backends.
// Filenames are /-joined keys, so day artifacts live under per-kind
// directories regardless of backend.
type StorageInterface interface {
	Store(filename string, data []byte) error
	Retrieve(filename string) ([]byte, error)
	List(prefix string) ([]string, error)
	Delete(filename string) error
}
