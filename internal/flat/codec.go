package flat

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// MalformedInputError reports a flat-schema value that cannot be coerced
// to its numeric or enum type.
type MalformedInputError struct {
	ID    int64
	Field string
	Value string
	Err   error
}

// Error implements the error interface.
func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("record %d: field %s: malformed value %q: %v", e.ID, e.Field, e.Value, e.Err)
}

// Unwrap returns the underlying conversion error.
func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// Conversion errors wrapped by MalformedInputError.
var (
	ErrNotNumeric = errors.New("not a number")
	ErrNonFinite  = errors.New("not a finite number")
)

// isMissing reports whether a raw cell means "no value".
func isMissing(raw string) bool {
	switch strings.ToLower(raw) {
	case "", "nan", "na", "null", "none":
		return true
	default:
		return false
	}
}

// ParseValue converts a raw cell into the numeric value of f.
// The boolean result is false when the cell is empty or marks a missing value.
func ParseValue(f Field, raw string) (float64, bool, error) {
	raw = strings.TrimSpace(raw)
	if isMissing(raw) {
		return 0, false, nil
	}

	if f == FieldMstat {
		switch strings.ToLower(raw) {
		case "single":
			return float64(MaritalSingle), true, nil
		case "joint", "married":
			return float64(MaritalJoint), true, nil
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, ErrNotNumeric
	}

	if math.IsInf(v, 0) {
		return 0, false, ErrNonFinite
	}

	return v, true, nil
}

// ParseRow builds a record from a header and one row of raw cells.
// Columns whose names are not flat fields are skipped.
func ParseRow(header, row []string) (Record, error) {
	var rec Record

	fields := make([]Field, len(header))
	known := make([]bool, len(header))

	for i, name := range header {
		f, err := ParseField(name)
		if err == nil {
			fields[i] = f
			known[i] = true
		}
	}

	// Identifier first so later errors can name the record.
	for i := range header {
		if !known[i] || fields[i] != FieldTaxsimID || i >= len(row) {
			continue
		}

		v, ok, err := ParseValue(FieldTaxsimID, row[i])
		if err != nil {
			return Record{}, &MalformedInputError{Field: FieldTaxsimID.String(), Value: row[i], Err: err}
		}

		if ok {
			rec.Set(FieldTaxsimID, v)
		}
	}

	for i, raw := range row {
		if i >= len(header) || !known[i] || fields[i] == FieldTaxsimID {
			continue
		}

		v, ok, err := ParseValue(fields[i], raw)
		if err != nil {
			return Record{}, &MalformedInputError{ID: rec.ID(), Field: fields[i].String(), Value: raw, Err: err}
		}

		if ok {
			rec.Set(fields[i], v)
		}
	}

	return rec, nil
}

// ReadCSV reads a header row followed by one record per row.
// It returns the records and the header columns that are not flat fields.
func ReadCSV(r io.Reader) ([]Record, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}

		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var unknown []string

	for _, name := range header {
		if _, err := ParseField(name); err != nil {
			unknown = append(unknown, name)
		}
	}

	var records []Record

	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, nil, fmt.Errorf("read line %d: %w", line, err)
		}

		rec, err := ParseRow(header, row)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}

		records = append(records, rec)
	}

	return records, unknown, nil
}

// FromMap builds a record from decoded JSON. Numbers, numeric strings and
// null are accepted; keys that are not flat fields are ignored.
func FromMap(m map[string]any) (Record, error) {
	var rec Record

	if raw, ok := m[FieldTaxsimID.String()]; ok {
		v, present, err := mapValue(FieldTaxsimID, raw)
		if err != nil {
			return Record{}, &MalformedInputError{Field: FieldTaxsimID.String(), Value: fmt.Sprint(raw), Err: err}
		}

		if present {
			rec.Set(FieldTaxsimID, v)
		}
	}

	for key, raw := range m {
		f, err := ParseField(key)
		if err != nil || f == FieldTaxsimID {
			continue
		}

		v, present, err := mapValue(f, raw)
		if err != nil {
			return Record{}, &MalformedInputError{ID: rec.ID(), Field: f.String(), Value: fmt.Sprint(raw), Err: err}
		}

		if present {
			rec.Set(f, v)
		}
	}

	return rec, nil
}

func mapValue(f Field, raw any) (float64, bool, error) {
	switch v := raw.(type) {
	case nil:
		return 0, false, nil
	case float64:
		if math.IsNaN(v) {
			return 0, false, nil
		}

		return v, true, nil
	case int:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	case json.Number:
		return ParseValue(f, v.String())
	case string:
		return ParseValue(f, v)
	default:
		return 0, false, fmt.Errorf("unsupported type %T", raw)
	}
}

// MarshalJSON encodes the present fields as an object keyed by column name.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// UnmarshalJSON decodes an object keyed by column name.
func (r *Record) UnmarshalJSON(data []byte) error {
	var m map[string]any

	err := json.Unmarshal(data, &m)
	if err != nil {
		return err
	}

	rec, err := FromMap(m)
	if err != nil {
		return err
	}

	*r = rec

	return nil
}
