package bond

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/rigado/bridge"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, nil)
	a := bridge.MustParseAddr("00:a0:50:11:22:33")
	b := bridge.MustParseAddr("00:a0:50:44:55:66")

	require.False(t, m.Exists(a))
	_, err := m.Find(a)
	require.Equal(t, bridge.ErrNotFound, errors.Cause(err))

	require.NoError(t, m.Save(a))
	require.NoError(t, m.Save(a))
	require.NoError(t, m.Save(b))
	require.True(t, m.Exists(a))

	i, err := m.Find(b)
	require.NoError(t, err)
	require.Equal(t, 1, i)

	list, err := m.List()
	require.NoError(t, err)
	require.Equal(t, []bridge.Addr{a, b}, list)

	raw, err := ioutil.ReadFile(filepath.Join(dir, DefaultFilename))
	require.NoError(t, err)
	require.JSONEq(t, `{"bonds":[{"address":"00a050112233"},{"address":"00a050445566"}]}`, string(raw))

	require.NoError(t, m.DeleteAll())
	require.False(t, m.Exists(a))
	require.NoError(t, m.DeleteAll())
}

func TestSaveZeroAddr(t *testing.T) {
	m := New(t.TempDir(), nil)
	require.Error(t, m.Save(bridge.Addr{}))
}

func TestCorruptBondFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, DefaultFilename), []byte("[]]"), 0644))

	m := New(dir, nil)
	require.False(t, m.Exists(bridge.MustParseAddr("00:a0:50:11:22:33")))
	require.Error(t, m.Save(bridge.MustParseAddr("00:a0:50:11:22:33")))
}
