package store

import (
	"io/ioutil"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// JSONFile is a JSON document on disk shared with other processes. Access is
// serialized by a mutex in-process and an advisory file lock across processes.
type JSONFile struct {
	Path string

	lock sync.RWMutex
}

// Read decodes the document into v. A missing or empty file leaves v as is.
func (j *JSONFile) Read(v interface{}) error {
	j.lock.RLock()
	defer j.lock.RUnlock()

	f, err := os.Open(j.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer f.Close()

	if err := lockFile(f, false); err != nil {
		return errors.Wrap(err, "lock")
	}
	defer unlockFile(f)

	return decode(f, v)
}

// Update decodes the document into v, calls fn and writes v back unless fn
// fails. The file is created when missing.
func (j *JSONFile) Update(v interface{}, fn func() error) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	f, err := os.OpenFile(j.Path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer f.Close()

	if err := lockFile(f, true); err != nil {
		return errors.Wrap(err, "lock")
	}
	defer unlockFile(f)

	if err := decode(f, v); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}

	out, err := jsoniter.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal")
	}
	if err := f.Truncate(0); err != nil {
		return errors.Wrap(err, "truncate")
	}
	if _, err := f.WriteAt(out, 0); err != nil {
		return errors.Wrap(err, "write")
	}
	return errors.Wrap(f.Sync(), "sync")
}

// Remove deletes the document.
func (j *JSONFile) Remove() error {
	j.lock.Lock()
	defer j.lock.Unlock()

	err := os.Remove(j.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func decode(f *os.File, v interface{}) error {
	in, err := ioutil.ReadAll(f)
	if err != nil {
		return errors.Wrap(err, "read")
	}
	if len(in) == 0 {
		return nil
	}
	return errors.Wrap(jsoniter.Unmarshal(in, v), "unmarshal")
}
