// Package bond records which peers the bridge is bonded with.
package bond

import (
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rigado/bridge"
	"github.com/rigado/bridge/store"
)

const DefaultFilename = "bonds.json"

type bondInfo struct {
	Bonds []remoteInfo `json:"bonds"`
}

type remoteInfo struct {
	Address string `json:"address"`
}

// Manager keeps the bond list in a JSON file.
type Manager struct {
	doc    store.JSONFile
	logger bridge.Logger
}

// New returns a manager for the bond file in dir.
func New(dir string, l bridge.Logger) *Manager {
	return &Manager{
		doc:    store.JSONFile{Path: filepath.Join(dir, DefaultFilename)},
		logger: bridge.ComponentLogger(l, "bond"),
	}
}

func addrKey(a bridge.Addr) string {
	return hex.EncodeToString(a[:])
}

func (m *Manager) Exists(a bridge.Addr) bool {
	_, err := m.Find(a)
	if err != nil && errors.Cause(err) != bridge.ErrNotFound {
		m.logger.Error(err)
	}
	return err == nil
}

// Find returns the index of a in the bond list.
func (m *Manager) Find(a bridge.Addr) (int, error) {
	var bonds bondInfo
	if err := m.doc.Read(&bonds); err != nil {
		return -1, errors.Wrap(err, "load bonds")
	}

	key := addrKey(a)
	for i, b := range bonds.Bonds {
		if b.Address == key {
			return i, nil
		}
	}
	return -1, errors.Wrapf(bridge.ErrNotFound, "bond for %v", a)
}

// Save adds a to the bond list. Saving a known peer is a no-op.
func (m *Manager) Save(a bridge.Addr) error {
	if a.IsZero() {
		return fmt.Errorf("invalid address: %v", a)
	}

	var bonds bondInfo
	err := m.doc.Update(&bonds, func() error {
		key := addrKey(a)
		for _, b := range bonds.Bonds {
			if b.Address == key {
				return nil
			}
		}
		bonds.Bonds = append(bonds.Bonds, remoteInfo{Address: key})
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "save bond %v", a)
	}
	m.logger.Debugf("saved bond %v", a)
	return nil
}

// List returns every bonded peer.
func (m *Manager) List() ([]bridge.Addr, error) {
	var bonds bondInfo
	if err := m.doc.Read(&bonds); err != nil {
		return nil, errors.Wrap(err, "load bonds")
	}

	out := make([]bridge.Addr, 0, len(bonds.Bonds))
	for _, b := range bonds.Bonds {
		raw, err := hex.DecodeString(b.Address)
		if err != nil || len(raw) != 6 {
			m.logger.Warnf("skipping invalid bond address %q", b.Address)
			continue
		}
		var a bridge.Addr
		copy(a[:], raw)
		out = append(out, a)
	}
	return out, nil
}

func (m *Manager) DeleteAll() error {
	return errors.Wrap(m.doc.Remove(), "delete bonds")
}
