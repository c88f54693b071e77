// Package transfer holds the CSV adapters: roster import parsing and the
// snapshot export format. It does no registry or ledger I/O of its own.
package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"scanpoint/internal/registry/service"
	"scanpoint/pkg/platform/sentinel"
)

// ReadRoster parses an identity roster file: a header line (skipped)
// followed by one candidate per row with at least identifier, display name
// and group label columns. Extra columns are ignored; shorter rows are
// counted and skipped. The file not being readable wraps
// sentinel.ErrIOFailure.
func ReadRoster(path string) (records []service.ImportRecord, malformed int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open roster: %w", errors.Join(sentinel.ErrIOFailure, err))
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1 // column counts vary; validated per row below

	headerSkipped := false
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed, fmt.Errorf("read roster row: %w", errors.Join(sentinel.ErrIOFailure, err))
		}
		if !headerSkipped {
			headerSkipped = true
			continue
		}
		if len(row) < 3 {
			malformed++
			continue
		}
		records = append(records, service.ImportRecord{
			Identifier:  row[0],
			DisplayName: row[1],
			GroupLabel:  row[2],
		})
	}
	return records, malformed, nil
}
