// Package storage defines the corpus file-system abstraction: discovery of
// markdown documents and confined path resolution under the corpus root.
package storage

import "time"

// Provider is the interface for corpus file operations. All paths are
// absolute; relative references are resolved through Resolve.
type Provider interface {
	// Root returns the absolute corpus root.
	Root() string
	// Discover returns the absolute path of every markdown file under the root.
	Discover() ([]string, error)
	// Rel returns path relative to the root, slash-separated.
	Rel(path string) (string, error)
	// Resolve joins ref onto dir and rejects results outside the root.
	Resolve(dir, ref string) (string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// ModTime returns the modification time of the file at path.
	ModTime(path string) (time.Time, error)
}
