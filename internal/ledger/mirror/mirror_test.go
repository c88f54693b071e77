package mirror

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.csv")
	m := NewFile(path)
	ts := time.Date(2026, 2, 3, 8, 15, 0, 0, time.Local)

	require.NoError(t, m.Append("Sunny Gran", "23TEP", ts))
	require.NoError(t, m.Append("Eveline Lim", "23TEI", ts.Add(time.Minute)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "display_name,group_label,timestamp", lines[0])
	require.Equal(t, "Sunny Gran,23TEP,2026-02-03 08:15:00", lines[1])
	require.Equal(t, "Eveline Lim,23TEI,2026-02-03 08:16:00", lines[2])
}

func TestClearTruncatesAndHeaderReturns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.csv")
	m := NewFile(path)
	ts := time.Date(2026, 2, 3, 8, 15, 0, 0, time.Local)

	require.NoError(t, m.Append("Sunny Gran", "23TEP", ts))
	require.NoError(t, m.Clear())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, raw)

	require.NoError(t, m.Append("Cleo", "23TEX", ts))
	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "display_name,group_label,timestamp", lines[0])
}

func TestClearCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.csv")
	require.NoError(t, NewFile(path).Clear())

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestAppendFailsOnUnwritablePath(t *testing.T) {
	m := NewFile(filepath.Join(t.TempDir(), "no", "such", "dir", "mirror.csv"))
	err := m.Append("Sunny Gran", "23TEP", time.Now())
	require.Error(t, err)
}
