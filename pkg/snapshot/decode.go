package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrMalformedSnapshot is returned when a snapshot file cannot be decoded
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Decode reads one snapshot file in its JSON form
func Decode(r io.Reader) (*File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	return &f, nil
}

// ReadFile opens and decodes a snapshot file
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	file, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return file, nil
}

// Batches returns the asset batches of the file in order
func (f *File) Batches() []*Assets {
	batches := make([]*Assets, 0, len(f.Snapshot))
	for i := range f.Snapshot {
		batches = append(batches, &f.Snapshot[i].Assets)
	}
	return batches
}
