package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	ledgermodels "scanpoint/internal/ledger/models"
	registrymodels "scanpoint/internal/registry/models"
	"scanpoint/pkg/platform/sentinel"
)

// SnapshotTitle is the first line of an export snapshot.
const SnapshotTitle = "scanpoint data export"

var snapshotHeader = []string{"display_name", "group_label", "timestamp"}

// WriteSnapshot serializes the current identities and scan events to a
// single file: title line, column header, one row per identity with a blank
// timestamp, then one row per scan with blank identity columns. An existing
// destination is overwritten; the write goes through a temp file and rename
// so a crash leaves either the old snapshot or the new one.
func WriteSnapshot(path string, identities []registrymodels.Identity, events []ledgermodels.ScanEvent) error {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", errors.Join(sentinel.ErrIOFailure, err))
	}

	w := csv.NewWriter(file)
	_ = w.Write([]string{SnapshotTitle})
	_ = w.Write(snapshotHeader)
	for _, identity := range identities {
		_ = w.Write([]string{identity.DisplayName, identity.GroupLabel, ""})
	}
	for _, event := range events {
		_ = w.Write([]string{"", "", event.Timestamp.Format(ledgermodels.TimestampLayout)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write snapshot: %w", errors.Join(sentinel.ErrIOFailure, err))
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", errors.Join(sentinel.ErrIOFailure, err))
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize snapshot: %w", errors.Join(sentinel.ErrIOFailure, err))
	}
	return nil
}

// ReadSnapshotCounts re-reads a snapshot and reports how many identity and
// scan rows it carries. Rows with a timestamp and no display name are scans;
// the rest are identities.
func ReadSnapshotCounts(path string) (identityRows, scanRows int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open snapshot: %w", errors.Join(sentinel.ErrIOFailure, err))
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	line := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, 0, fmt.Errorf("read snapshot row: %w", errors.Join(sentinel.ErrIOFailure, err))
		}
		line++
		if line <= 2 { // title and header
			continue
		}
		if len(row) < 3 {
			continue
		}
		if row[0] == "" && row[1] == "" && row[2] != "" {
			scanRows++
		} else {
			identityRows++
		}
	}
	return identityRows, scanRows, nil
}
