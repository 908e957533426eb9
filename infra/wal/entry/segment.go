package entry

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

const segmentGlob = "segment-*.wal"

type segment struct {
	file   *os.File
	index  int
	offset int64
	opened time.Time
}

func segmentPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("segment-%06d.wal", index))
}

func openSegment(dir string, index int) (*segment, error) {
	f, err := os.OpenFile(segmentPath(dir, index), os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &segment{file: f, index: index, offset: st.Size(), opened: time.Now()}, nil
}

func (s *segment) append(b []byte) error {
	n, err := s.file.Write(b)
	s.offset += int64(n)
	return err
}

func (s *segment) close() error {
	return s.file.Close()
}

// listSegments returns segment paths with their indexes, oldest first.
func listSegments(dir string) ([]string, []int, error) {
	files, err := filepath.Glob(filepath.Join(dir, segmentGlob))
	if err != nil {
		return nil, nil, err
	}
	slices.Sort(files)

	idx := make([]int, 0, len(files))
	paths := files[:0]
	for _, path := range files {
		var i int
		if _, err := fmt.Sscanf(filepath.Base(path), "segment-%06d.wal", &i); err != nil {
			continue
		}
		paths = append(paths, path)
		idx = append(idx, i)
	}
	return paths, idx, nil
}
