// Package store reads the candidate URL list and persists validation
// results as a resumable CSV snapshot.
package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/iconidentify/mediasweep/internal/domain"
)

// LoadSource reads the candidate list produced by the upstream
// discovery pass. Rows tagged with sentinel media types are filtered
// out before queueing. A missing file is fatal: there is nothing to
// validate without it.
func LoadSource(path string) ([]domain.SourceEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("open source list: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read source header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	if _, ok := col["actual_url"]; !ok {
		return nil, fmt.Errorf("source list missing actual_url column")
	}

	var entries []domain.SourceEntry
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read source row: %w", err)
		}

		entry := domain.SourceEntry{
			OriginalURL: field(row, col, "original_url"),
			ActualURL:   field(row, col, "actual_url"),
			MediaType:   field(row, col, "media_type"),
		}
		if entry.Excluded() {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
