package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/runqy/runqy-go/domain/task"
)

// Writer writes protocol messages, one minified JSON document per line.
// Every message is flushed as soon as it is written.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter creates a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// WriteReady writes the readiness message.
func (w *Writer) WriteReady() error {
	return w.write(readyMessage{Status: StatusReady})
}

// WriteResponse writes a task response.
// If the result cannot be encoded, a failed response for the same task is
// written instead and an *UnencodableResultError is returned.
func (w *Writer) WriteResponse(r task.Response) error {
	line, err := encodeLine(toResponseMessage(r))
	if err == nil {
		return w.writeLine(line)
	}

	fallback, ferr := encodeLine(toResponseMessage(task.Failed(
		r.TaskID(), fmt.Sprintf("result is not JSON serializable: %v", err), false,
	)))
	if ferr != nil {
		return fmt.Errorf("encode response: %w", ferr)
	}
	if werr := w.writeLine(fallback); werr != nil {
		return werr
	}
	return &UnencodableResultError{TaskID: r.TaskID(), Err: err}
}

// UnencodableResultError reports a handler result that could not be encoded.
// The task has already been answered with a failed response.
type UnencodableResultError struct {
	TaskID string
	Err    error
}

func (e *UnencodableResultError) Error() string {
	return fmt.Sprintf("encode result of task %s: %v", e.TaskID, e.Err)
}

func (e *UnencodableResultError) Unwrap() error { return e.Err }

func (w *Writer) write(v any) error {
	line, err := encodeLine(v)
	if err != nil {
		return err
	}
	return w.writeLine(line)
}

func (w *Writer) writeLine(line []byte) error {
	if _, err := w.bw.Write(line); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// encodeLine encodes v as a single JSON line terminated by "\n".
// HTML characters are not escaped so payload text passes through unchanged.
func encodeLine(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
