package ds1302

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConfigured is returned by every operation until Configure has run.
	ErrNotConfigured = errors.New("ds1302: device not configured")
	// ErrTransferActive is returned when a transfer is started while another one is still open.
	ErrTransferActive = errors.New("ds1302: transfer already active")
	// ErrNoTransfer is returned when bits are clocked or a transfer is ended outside of a transfer.
	ErrNoTransfer = errors.New("ds1302: no active transfer")
)

// FieldError is a single register field with a value outside of its domain.
type FieldError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s %d not in %d..%d", e.Field, e.Value, e.Min, e.Max)
}

// RangeError reports fields that are out of range. ReadTime returns it alongside the decoded date, which is kept as
// read and not clamped. SetTime returns it when a field does not fit in two BCD digits.
type RangeError struct {
	Fields []FieldError
}

func (e *RangeError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "ds1302: field out of range: " + strings.Join(parts, ", ")
}

type rangeCheck struct {
	fields []FieldError
}

func (r *rangeCheck) check(field string, v, lo, hi int) {
	if v < lo || v > hi {
		r.fields = append(r.fields, FieldError{Field: field, Value: v, Min: lo, Max: hi})
	}
}

func (r *rangeCheck) err() error {
	if len(r.fields) == 0 {
		return nil
	}
	return &RangeError{Fields: r.fields}
}
