// Package checkpoint reads the out-of-band resume flag for the sourcing
// stage. Only the file's existence is load-bearing; its content is opaque and
// owned by whatever persisted it.
package checkpoint

import "os"

// Marker is a filesystem existence flag at a fixed path.
type Marker struct {
	path string
}

// New creates a marker bound to the given path.
func New(path string) *Marker {
	return &Marker{path: path}
}

// Path returns the marker's file path.
func (m *Marker) Path() string {
	return m.path
}

// Exists reports whether a previous attempt left the marker behind.
func (m *Marker) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Clear removes the marker. A missing marker is not an error.
func (m *Marker) Clear() error {
	err := os.Remove(m.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
