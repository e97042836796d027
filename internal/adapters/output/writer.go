// Package output provides adapters for writing application output.
package output

import (
	"fmt"
	"io"
	"os"
)

// Writer renders progress and result lines to an output destination.
// By default, it writes to stderr for progress and stdout for results, so
// hook scripts can consume results while a human watches the scan.
type Writer struct {
	out   io.Writer
	err   io.Writer
	quiet bool
}

// NewWriter creates a Writer on stdout/stderr.
func NewWriter() *Writer {
	return &Writer{out: os.Stdout, err: os.Stderr}
}

// NewWriterWithOutput creates a Writer with custom destinations.
// This is useful for testing.
func NewWriterWithOutput(out, errOut io.Writer) *Writer {
	return &Writer{out: out, err: errOut}
}

// SetQuiet suppresses progress reporting.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// Progress reports one step of a branch scan on the progress stream.
func (w *Writer) Progress(branch string, index, total int) {
	if w.quiet {
		return
	}
	fmt.Fprintf(w.err, "\rscanning branches %d/%d (%s)\033[K", index, total, branch)
	if index == total {
		fmt.Fprintln(w.err)
	}
}

// Line writes one rendered result line.
func (w *Writer) Line(format string, args ...any) {
	fmt.Fprintf(w.out, format+"\n", args...)
}
