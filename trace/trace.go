// Package trace provides branch outcome traces: one record per dynamic
// conditional branch, in program order.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Record is a single dynamic branch.
type Record struct {
	// PC is the address of the branch instruction.
	PC uint64
	// Taken is the actual direction of the branch.
	Taken bool
	// Target is the taken target, or 0 if unknown.
	Target uint64
}

// Source yields records in program order. Next returns io.EOF after the
// last record.
type Source interface {
	Next() (Record, error)
}

// SliceSource replays an in-memory trace.
type SliceSource struct {
	records []Record
	pos     int
}

// NewSliceSource creates a source over records. The slice is not copied and
// must not be modified while the source is in use.
func NewSliceSource(records []Record) *SliceSource {
	return &SliceSource{records: records}
}

// Next returns the next record.
func (s *SliceSource) Next() (Record, error) {
	if s.pos >= len(s.records) {
		return Record{}, io.EOF
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}

// Reader parses the text trace format:
//
//	# comment
//	<pc> <T|N|1|0> [<target>]
//
// Numbers use Go integer literal syntax, so 0x-prefixed hex is accepted.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next record, skipping blank and comment lines.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++

		text := r.scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		rec, err := parseRecord(fields)
		if err != nil {
			return Record{}, fmt.Errorf("trace line %d: %w", r.line, err)
		}
		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, err
	}
	return Record{}, io.EOF
}

func parseRecord(fields []string) (Record, error) {
	if len(fields) < 2 || len(fields) > 3 {
		return Record{}, fmt.Errorf("expected 2 or 3 fields, got %d", len(fields))
	}

	var rec Record
	var err error

	if rec.PC, err = strconv.ParseUint(fields[0], 0, 64); err != nil {
		return Record{}, fmt.Errorf("bad pc %q: %w", fields[0], err)
	}

	switch strings.ToUpper(fields[1]) {
	case "T", "1":
		rec.Taken = true
	case "N", "0":
		rec.Taken = false
	default:
		return Record{}, fmt.Errorf("bad direction %q", fields[1])
	}

	if len(fields) == 3 {
		if rec.Target, err = strconv.ParseUint(fields[2], 0, 64); err != nil {
			return Record{}, fmt.Errorf("bad target %q: %w", fields[2], err)
		}
	}

	return rec, nil
}

// ReadAll drains a source.
func ReadAll(src Source) ([]Record, error) {
	var records []Record
	for {
		rec, err := src.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// Writer emits records in the format Reader parses.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write emits one record.
func (w *Writer) Write(rec Record) error {
	dir := "N"
	if rec.Taken {
		dir = "T"
	}

	var err error
	if rec.Target != 0 {
		_, err = fmt.Fprintf(w.w, "0x%x %s 0x%x\n", rec.PC, dir, rec.Target)
	} else {
		_, err = fmt.Fprintf(w.w, "0x%x %s\n", rec.PC, dir)
	}
	return err
}

// WriteAll emits all records and flushes.
func (w *Writer) WriteAll(records []Record) error {
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Flush writes any buffered data.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
