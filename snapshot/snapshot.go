// Package snapshot copies the customer's local channel database in and
// out of a per channel archive. Restoring an old copy makes the customer
// close on a revoked state, which is what the dispute scenarios test.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/elementsproject/zkharness/log"
)

// ErrNoSnapshot is returned by Restore when Store was never called for
// the channel.
var ErrNoSnapshot = errors.New("no snapshot stored for channel")

// Store keeps at most one snapshot per channel label. The snapshot of a
// label lives in `<archiveRoot>/<label>` and contains the database file
// and all companion files sharing its base name (-wal, -shm, ...).
type Store struct {
	liveDir     string
	dbName      string
	archiveRoot string
}

func New(liveDir, dbName, archiveRoot string) *Store {
	return &Store{
		liveDir:     liveDir,
		dbName:      dbName,
		archiveRoot: archiveRoot,
	}
}

// Path returns the archive directory of a channel.
func (s *Store) Path(label string) string {
	return filepath.Join(s.archiveRoot, label)
}

// Store copies the live database files into the archive of label,
// replacing an older snapshot.
func (s *Store) Store(label string) error {
	if err := checkLabel(label); err != nil {
		return err
	}
	live, err := s.files(s.liveDir)
	if err != nil {
		return err
	}
	if len(live) == 0 {
		return fmt.Errorf("no database files matching %s in %s", s.dbName, s.liveDir)
	}

	dst := s.Path(label)
	err = os.MkdirAll(dst, 0o700)
	if err != nil {
		return fmt.Errorf("MkdirAll(%s) %w", dst, err)
	}
	old, err := s.files(dst)
	if err != nil {
		return err
	}
	for _, f := range old {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("Remove(%s) %w", f, err)
		}
	}

	for _, f := range live {
		err = copyFile(f, filepath.Join(dst, filepath.Base(f)))
		if err != nil {
			return err
		}
	}
	log.Debugf("stored %d db file(s) for %s in %s", len(live), label, dst)
	return nil
}

// Restore overwrites the live database files with the snapshot of
// label. Live companion files that are not part of the snapshot are
// removed so that a newer journal is not replayed onto the old state.
func (s *Store) Restore(label string) error {
	if err := checkLabel(label); err != nil {
		return err
	}
	src := s.Path(label)
	stored, err := s.files(src)
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		return fmt.Errorf("%w: %s", ErrNoSnapshot, label)
	}

	keep := make(map[string]struct{}, len(stored))
	for _, f := range stored {
		name := filepath.Base(f)
		keep[name] = struct{}{}
		err = copyFile(f, filepath.Join(s.liveDir, name))
		if err != nil {
			return err
		}
	}

	live, err := s.files(s.liveDir)
	if err != nil {
		return err
	}
	for _, f := range live {
		if _, ok := keep[filepath.Base(f)]; ok {
			continue
		}
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("Remove(%s) %w", f, err)
		}
	}
	log.Debugf("restored %d db file(s) for %s from %s", len(stored), label, src)
	return nil
}

func (s *Store) files(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, globEscape(s.dbName)+"*"))
	if err != nil {
		return nil, fmt.Errorf("Glob() %w", err)
	}
	var files []string
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("Stat(%s) %w", m, err)
		}
		if fi.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	return files, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("Open(%s) %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("OpenFile(%s) %w", dst, err)
	}
	_, err = io.Copy(out, in)
	if err != nil {
		out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

func checkLabel(label string) error {
	if label == "" || label == "." || label == ".." || strings.ContainsAny(label, `/\`) {
		return fmt.Errorf("invalid channel label %q", label)
	}
	return nil
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `\`, `\\`)
	return r.Replace(s)
}
