package catalog

import (
	"embed"
	"io/fs"
)

//go:embed defaults
var defaultFS embed.FS

// Defaults returns the catalog and boards bundled with the binary.
func Defaults() fs.FS {
	sub, err := fs.Sub(defaultFS, "defaults")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewDefaultManager creates a manager over the bundled content.
func NewDefaultManager() (*Manager, error) {
	return NewManager(Defaults())
}
