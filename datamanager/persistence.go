package datamanager

import (
	"bufio"
	"fmt"
	"os"
)

// ResultSink is the append-only output the data manager writes every truth
// result to, flushed per record (spec §6). It is a scoped resource: callers
// must Close it explicitly rather than relying on finalisation (design
// note 9 — "Destructor-based persistence flush").
type ResultSink interface {
	AppendValid(i int, target float64) error
	AppendInvalid(i int) error
	Close() error
}

// sinkHeader is the fixed version header every result sink file begins
// with, per spec §6.
const sinkHeader = "#AMI0.0.1"

// CSVResultSink writes the spec's two-record-shape text format: a header
// line, then one line per result — "<index>,<target>" for a valid result,
// "#<index>," for a failed one.
type CSVResultSink struct {
	f *os.File
	w *bufio.Writer
}

// NewCSVResultSink creates (truncating) the file at path and writes the
// header line.
func NewCSVResultSink(path string) (*CSVResultSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("datamanager: creating result sink %q: %w", path, err)
	}
	sink := &CSVResultSink{f: f, w: bufio.NewWriter(f)}
	if _, err := fmt.Fprintln(sink.w, sinkHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("datamanager: writing result sink header: %w", err)
	}
	if err := sink.w.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("datamanager: flushing result sink header: %w", err)
	}
	return sink, nil
}

// AppendValid writes a successful result and flushes immediately.
func (s *CSVResultSink) AppendValid(i int, target float64) error {
	if _, err := fmt.Fprintf(s.w, "%d,%v\n", i, target); err != nil {
		return fmt.Errorf("datamanager: appending valid result for %d: %w", i, err)
	}
	return s.w.Flush()
}

// AppendInvalid writes a failed result and flushes immediately.
func (s *CSVResultSink) AppendInvalid(i int) error {
	if _, err := fmt.Fprintf(s.w, "#%d,\n", i); err != nil {
		return fmt.Errorf("datamanager: appending invalid result for %d: %w", i, err)
	}
	return s.w.Flush()
}

// Close flushes and closes the underlying file. Callers are responsible for
// calling this exactly once, typically via defer immediately after
// construction succeeds.
func (s *CSVResultSink) Close() error {
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
