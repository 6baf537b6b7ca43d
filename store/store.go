// Package store keeps small keyed records across restarts.
package store

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rigado/bridge"
)

type fileRecords struct {
	Records map[string]string `json:"records"`
}

// File persists records in a JSON file.
type File struct {
	doc JSONFile
}

func NewFile(filename string) *File {
	return &File{doc: JSONFile{Path: filename}}
}

func recordName(k bridge.Key) string {
	return fmt.Sprintf("0x%02x", uint8(k))
}

func (s *File) Persist(k bridge.Key, b []byte) error {
	var recs fileRecords
	err := s.doc.Update(&recs, func() error {
		if recs.Records == nil {
			recs.Records = map[string]string{}
		}
		recs.Records[recordName(k)] = hex.EncodeToString(b)
		return nil
	})
	return errors.Wrapf(err, "persist %s in %s", recordName(k), s.doc.Path)
}

func (s *File) Load(k bridge.Key) ([]byte, error) {
	var recs fileRecords
	if err := s.doc.Read(&recs); err != nil {
		return nil, errors.Wrapf(err, "load %s from %s", recordName(k), s.doc.Path)
	}

	v, ok := recs.Records[recordName(k)]
	if !ok {
		return nil, errors.Wrapf(bridge.ErrNotFound, "record %s", recordName(k))
	}

	b, err := hex.DecodeString(v)
	if err != nil {
		return nil, errors.Wrapf(err, "record %s", recordName(k))
	}
	return b, nil
}

// Clear removes every record.
func (s *File) Clear() error {
	return s.doc.Remove()
}

// Memory keeps records in memory. A non-nil FailPersist is returned by
// every Persist call without storing anything.
type Memory struct {
	FailPersist error

	records map[bridge.Key][]byte
}

func NewMemory() *Memory {
	return &Memory{records: map[bridge.Key][]byte{}}
}

func (m *Memory) Persist(k bridge.Key, b []byte) error {
	if m.FailPersist != nil {
		return m.FailPersist
	}
	m.records[k] = append([]byte{}, b...)
	return nil
}

func (m *Memory) Load(k bridge.Key) ([]byte, error) {
	b, ok := m.records[k]
	if !ok {
		return nil, errors.Wrapf(bridge.ErrNotFound, "record %s", recordName(k))
	}
	return append([]byte{}, b...), nil
}
