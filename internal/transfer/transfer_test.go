package transfer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ledgermodels "scanpoint/internal/ledger/models"
	registrymodels "scanpoint/internal/registry/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadRoster(t *testing.T) {
	path := writeFile(t, "roster.csv", strings.Join([]string{
		"identifier,display_name,group_label",
		"A1,Sunny Gran,23TEP",
		"B2,Eveline Lim,23TEI,extra,columns",
		"short,row",
		"C3,Cleo,23TEX",
	}, "\n"))

	records, malformed, err := ReadRoster(path)
	require.NoError(t, err)
	require.Equal(t, 1, malformed)
	require.Len(t, records, 3)
	require.Equal(t, "A1", records[0].Identifier)
	require.Equal(t, "Eveline Lim", records[1].DisplayName)
	require.Equal(t, "23TEX", records[2].GroupLabel)
}

func TestReadRosterHeaderOnly(t *testing.T) {
	path := writeFile(t, "roster.csv", "identifier,display_name,group_label\n")

	records, malformed, err := ReadRoster(path)
	require.NoError(t, err)
	require.Zero(t, malformed)
	require.Empty(t, records)
}

func TestReadRosterMissingFile(t *testing.T) {
	_, _, err := ReadRoster(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	identities := []registrymodels.Identity{
		{Identifier: "A1", DisplayName: "Sunny Gran", GroupLabel: "23TEP"},
		{Identifier: "B2", DisplayName: "Eveline Lim", GroupLabel: "23TEI"},
	}
	events := []ledgermodels.ScanEvent{
		{Seq: 1, Identifier: "A1", Timestamp: time.Date(2026, 2, 3, 8, 15, 0, 0, time.Local)},
		{Seq: 2, Identifier: "A1", Timestamp: time.Date(2026, 2, 3, 8, 16, 0, 0, time.Local)},
		{Seq: 3, Identifier: "B2", Timestamp: time.Date(2026, 2, 3, 8, 17, 0, 0, time.Local)},
	}

	path := filepath.Join(t.TempDir(), "snapshot.csv")
	require.NoError(t, WriteSnapshot(path, identities, events))

	identityRows, scanRows, err := ReadSnapshotCounts(path)
	require.NoError(t, err)
	require.Equal(t, len(identities), identityRows)
	require.Equal(t, len(events), scanRows)
}

func TestWriteSnapshotOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale contents\n"), 0o644))

	require.NoError(t, WriteSnapshot(path, nil, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, SnapshotTitle, lines[0])
	require.Equal(t, "display_name,group_label,timestamp", lines[1])
}

func TestWriteSnapshotUnwritableDestination(t *testing.T) {
	err := WriteSnapshot(filepath.Join(t.TempDir(), "no", "dir", "snapshot.csv"), nil, nil)
	require.Error(t, err)
}
