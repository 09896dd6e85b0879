package fsutil

// FileStore provides an interface for file system operations
type FileStore interface {
	// ReadFile reads a file and returns its contents
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating parent directories as needed
	WriteFile(path string, data []byte) error

	// Exists reports whether a file or directory exists at path
	Exists(path string) (bool, error)

	// MakeDirectory creates a new directory and all necessary parents
	MakeDirectory(path string) error

	// ListFiles returns the regular files directly inside a directory, sorted by name
	ListFiles(path string) ([]string, error)
}
