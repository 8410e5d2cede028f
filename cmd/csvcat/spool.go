package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// spool holds formatted output in a temporary file until the query that
// produces it has succeeded, so a failed query writes nothing. Memory stays
// bounded however large the result is.
type spool struct {
	file *os.File
	dest io.Writer // nil when the spool is renamed over path
	path string
	done bool
}

// newSpool spools output for the file at path, or for dest when path is
// empty. A file spool lives next to path so that commit is a rename.
func newSpool(path string, dest io.Writer) (*spool, error) {
	dir := ""
	if path != "" {
		dir = filepath.Dir(path)
		dest = nil
	}
	file, err := os.CreateTemp(dir, ".csvcat-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &spool{file: file, dest: dest, path: path}, nil
}

func (s *spool) Write(p []byte) (int, error) { return s.file.Write(p) }

// commit delivers the spooled output.
func (s *spool) commit() error {
	s.done = true
	name := s.file.Name()

	if s.dest != nil {
		defer func() { _ = os.Remove(name) }()
		defer func() { _ = s.file.Close() }()
		if _, err := s.file.Seek(0, io.SeekStart); err != nil {
			return err
		}
		_, err := io.Copy(s.dest, s.file)
		return err
	}

	ok := false
	defer func() {
		_ = s.file.Close()
		if !ok {
			_ = os.Remove(name)
		}
	}()
	if err := s.file.Chmod(0o644); err != nil {
		return err
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(name, s.path); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	ok = true
	return nil
}

// discard drops the spooled output. It is a no-op after commit.
func (s *spool) discard() {
	if s.done {
		return
	}
	s.done = true
	_ = s.file.Close()
	_ = os.Remove(s.file.Name())
}
