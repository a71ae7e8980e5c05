package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// DefaultMaxLineBytes is the largest accepted input line.
const DefaultMaxLineBytes = 64 << 20

// ErrLineTooLong is returned for an input line exceeding the reader limit.
// The rest of the offending line is discarded so the next call starts on a
// fresh line.
var ErrLineTooLong = errors.New("input line exceeds maximum length")

// Reader reads newline-delimited input lines.
type Reader struct {
	br      *bufio.Reader
	maxLine int
}

// NewReader creates a Reader. A maxLine of zero or less selects DefaultMaxLineBytes.
func NewReader(r io.Reader, maxLine int) *Reader {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	return &Reader{
		br:      bufio.NewReaderSize(r, 64*1024),
		maxLine: maxLine,
	}
}

// ReadLine returns the next line without its trailing "\n" or "\r\n".
// A final line without a terminating newline is returned as a normal line.
// io.EOF is returned once the stream is exhausted.
func (r *Reader) ReadLine() ([]byte, error) {
	var (
		line    []byte
		tooLong bool
		sawData bool
	)
	for {
		chunk, err := r.br.ReadSlice('\n')
		if len(chunk) > 0 {
			sawData = true
		}
		if !tooLong {
			if len(line)+len(chunk) > r.maxLine+2 {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if !sawData {
				return nil, io.EOF
			}
		case err != nil:
			return nil, err
		}
		break
	}

	if tooLong {
		return nil, ErrLineTooLong
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) > r.maxLine {
		return nil, ErrLineTooLong
	}
	return line, nil
}
