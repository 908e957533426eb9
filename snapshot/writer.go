package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
)

type Writer struct {
	Dir string
}

func (w *Writer) Path() string {
	return filepath.Join(w.Dir, FileName)
}

// Save writes s to a temporary file and renames it over the previous
// snapshot, so a crash never leaves a half-written one.
func (w *Writer) Save(s *Snapshot) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(w.Dir, FileName+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := gob.NewEncoder(f).Encode(s); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, w.Path())
}
