package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/iconidentify/mediasweep/internal/domain"
)

// Fixed columns every record carries, in their preferred output order.
// All other observed columns follow lexicographically.
var preferredColumns = []string{
	"original_url",
	"actual_url",
	"media_type",
	"is_valid",
	"validation_method",
	"file_size_bytes",
	"error",
}

// ResultStore maps actual_url to its latest ValidationRecord. It is the
// sole mutable shared state of a run and must only be mutated from the
// single result-harvesting goroutine.
type ResultStore struct {
	path    string
	records map[string]domain.ValidationRecord
	order   []string // actual_urls in first-seen order, for stable output
}

// NewResultStore creates an empty store backed by path.
func NewResultStore(path string) *ResultStore {
	return &ResultStore{
		path:    path,
		records: make(map[string]domain.ValidationRecord),
	}
}

// Load populates the store from the last persisted snapshot. A missing
// file is a clean first run, not an error.
func (s *ResultStore) Load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open result store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read result header: %w", err)
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read result row: %w", err)
		}
		s.Merge(recordFromRow(header, row))
	}

	return nil
}

func recordFromRow(header, row []string) domain.ValidationRecord {
	rec := domain.ValidationRecord{Fields: make(map[string]string)}
	for i, name := range header {
		if i >= len(row) {
			break
		}
		value := row[i]
		switch name {
		case "original_url":
			rec.OriginalURL = value
		case "actual_url":
			rec.ActualURL = value
		case "media_type":
			rec.MediaType = value
		case "is_valid":
			valid, _ := strconv.ParseBool(value)
			rec.IsValid = valid
		case "validation_method":
			rec.Method = domain.ValidationMethod(value)
		case "error":
			rec.Error = value
		default:
			if value != "" {
				rec.Fields[name] = value
			}
		}
	}
	return rec
}

// Merge inserts or overwrites the record for its actual_url. A later
// validation always wins.
func (s *ResultStore) Merge(rec domain.ValidationRecord) {
	if _, seen := s.records[rec.ActualURL]; !seen {
		s.order = append(s.order, rec.ActualURL)
	}
	s.records[rec.ActualURL] = rec
}

// Has reports whether a record exists for the URL.
func (s *ResultStore) Has(url string) bool {
	_, ok := s.records[url]
	return ok
}

// Get returns the record for the URL, if any.
func (s *ResultStore) Get(url string) (domain.ValidationRecord, bool) {
	rec, ok := s.records[url]
	return rec, ok
}

// Len returns the number of records held.
func (s *ResultStore) Len() int {
	return len(s.records)
}

// Counts returns how many records are valid and invalid.
func (s *ResultStore) Counts() (valid, invalid int) {
	for _, rec := range s.records {
		if rec.IsValid {
			valid++
		} else {
			invalid++
		}
	}
	return valid, invalid
}

// Pending returns the entries not yet represented in the store,
// preserving source order.
func (s *ResultStore) Pending(entries []domain.SourceEntry) []domain.SourceEntry {
	var pending []domain.SourceEntry
	for _, e := range entries {
		if !s.Has(e.ActualURL) {
			pending = append(pending, e)
		}
	}
	return pending
}

// InvalidEntries returns the entries whose stored record is invalid,
// preserving source order. Used to requeue failures for another pass.
func (s *ResultStore) InvalidEntries(entries []domain.SourceEntry) []domain.SourceEntry {
	var out []domain.SourceEntry
	for _, e := range entries {
		if rec, ok := s.records[e.ActualURL]; ok && !rec.IsValid {
			out = append(out, e)
		}
	}
	return out
}

// Headers computes the snapshot's column set: the union of keys across
// all records, preferred columns first, the rest sorted
// lexicographically. Pure function of the current store contents.
func (s *ResultStore) Headers() []string {
	observed := make(map[string]bool)
	anyMethod, anyError := false, false
	for _, rec := range s.records {
		if rec.Method != "" {
			anyMethod = true
		}
		if rec.Error != "" {
			anyError = true
		}
		for k := range rec.Fields {
			observed[k] = true
		}
	}

	preferred := make(map[string]bool, len(preferredColumns))
	headers := make([]string, 0, len(observed)+len(preferredColumns))
	for _, name := range preferredColumns {
		preferred[name] = true
		switch name {
		case "validation_method":
			if !anyMethod {
				continue
			}
		case "error":
			if !anyError {
				continue
			}
		case "file_size_bytes":
			if !observed[name] {
				continue
			}
		}
		headers = append(headers, name)
	}

	var rest []string
	for k := range observed {
		if !preferred[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)

	return append(headers, rest...)
}

// Save rewrites the full snapshot. The write goes to a temp file in the
// same directory followed by a rename, so a crash mid-write never
// corrupts the previous snapshot.
func (s *ResultStore) Save() error {
	if len(s.records) == 0 {
		return nil
	}

	headers := s.Headers()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(headers); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot header: %w", err)
	}

	row := make([]string, len(headers))
	for _, url := range s.order {
		rec := s.records[url]
		for i, h := range headers {
			row[i] = recordValue(rec, h)
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("write snapshot row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func recordValue(rec domain.ValidationRecord, header string) string {
	switch header {
	case "original_url":
		return rec.OriginalURL
	case "actual_url":
		return rec.ActualURL
	case "media_type":
		return rec.MediaType
	case "is_valid":
		return strconv.FormatBool(rec.IsValid)
	case "validation_method":
		return string(rec.Method)
	case "error":
		return rec.Error
	default:
		return rec.Fields[header]
	}
}
