package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services"
)

// Mode selects the CSV dialect
type Mode string

const (
	// ModeLoose joins values with commas and only quotes values that
	// contain a comma. Embedded quotes and newlines are not escaped.
	ModeLoose Mode = "loose"
	// ModeStrict writes RFC 4180 CSV
	ModeStrict Mode = "strict"
)

const mimeTypeCSV = "text/csv"

// ParseMode parses s, defaulting to loose
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLoose:
		return ModeLoose, nil
	case ModeStrict:
		return ModeStrict, nil
	}
	return "", services.ErrInvalidFormat
}

// Payload is an export ready to be handed to a Sink
type Payload struct {
	FileName  string              `json:"file_name"`
	MimeType  string              `json:"mime_type"`
	Resource  models.ResourceType `json:"resource"`
	Content   []byte              `json:"-"`
	Size      int                 `json:"size"`
	CreatedAt time.Time           `json:"created_at"`
}

// Encode renders records in mode. The header is the field keys of the
// first record; an empty list encodes to nothing.
func Encode(mode Mode, records []models.Record) ([]byte, error) {
	switch mode {
	case ModeLoose:
		return EncodeLoose(records), nil
	case ModeStrict:
		return EncodeStrict(records)
	}
	return nil, services.ErrInvalidFormat
}

// EncodeLoose renders records as comma-joined rows separated by "\n"
func EncodeLoose(records []models.Record) []byte {
	if len(records) == 0 {
		return nil
	}

	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(keys(records[0]), ","))
	for _, r := range records {
		fields := r.Fields()
		values := make([]string, len(fields))
		for i, f := range fields {
			if strings.Contains(f.Value, ",") {
				values[i] = `"` + f.Value + `"`
			} else {
				values[i] = f.Value
			}
		}
		lines = append(lines, strings.Join(values, ","))
	}
	return []byte(strings.Join(lines, "\n"))
}

// EncodeStrict renders records as RFC 4180 CSV
func EncodeStrict(records []models.Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(keys(records[0])); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range records {
		fields := r.Fields()
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = f.Value
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// NewPayload encodes records into a CSV payload named after base and the date of now
func NewPayload(base string, mode Mode, records []models.Record, now time.Time) (*Payload, error) {
	content, err := Encode(mode, records)
	if err != nil {
		return nil, err
	}
	return &Payload{
		FileName:  FileName(base, "csv", now),
		MimeType:  mimeTypeCSV,
		Content:   content,
		Size:      len(content),
		CreatedAt: now,
	}, nil
}

// FileName builds "<slug>_<yyyymmdd>.<ext>"
func FileName(base, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", Slug(base), now.Format("20060102"), ext)
}

// Slug lowercases s and replaces every run of non-alphanumeric characters with "_"
func Slug(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return "export"
	}
	return b.String()
}

func keys(r models.Record) []string {
	fields := r.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Key
	}
	return out
}
