package timetable

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/brandondube/thermod/therr"
)

// LoadFile reads and validates a Timetable from path, per spec section 4.3
// operation 1 (load).
func LoadFile(path string) (Timetable, error) {
	blob, err := ioutil.ReadFile(path)
	if err != nil {
		return Timetable{}, therr.Wrap(therr.Persistence, err, "reading timetable file")
	}
	return Load(blob, path)
}

// Save persists t to t.FilePath() atomically: it writes to a temp file in
// the same directory, then renames over the destination, so a reader never
// observes a partially-written file.  A handful of transient I/O failures
// (e.g. a momentarily full buffer, a removable-media hiccup) are retried
// with a short exponential backoff before giving up.
//
// Per spec section 4.3, a Save failure never rolls back the in-memory
// Timetable -- the caller (the control surface) decides what to do with a
// *therr.Error of Kind Persistence.
func (t Timetable) Save() error {
	if t.filePath == "" {
		return therr.New(therr.Persistence, "timetable has no backing file path")
	}
	blob, err := t.Serialize()
	if err != nil {
		return therr.Wrap(therr.Persistence, err, "serializing timetable")
	}

	op := func() error {
		return writeFileAtomic(t.filePath, blob)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxElapsedTime = 1 * time.Second
	if err := backoff.Retry(op, b); err != nil {
		return therr.Wrap(therr.Persistence, err, "writing timetable file")
	}
	return nil
}

func writeFileAtomic(path string, blob []byte) error {
	dir := filepath.Dir(path)
	tmp, err := ioutil.TempFile(dir, ".timetable-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
