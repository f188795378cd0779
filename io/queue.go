package io

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Queue is the buffered input of the machine. Characters loaded ahead of
// time are served first; once exhausted, a line is read from Interactive
// and queued with a trailing newline.
type Queue struct {
	Interactive LineReader // Fallback line source, may be nil.

	pending []uint16
}

var _ Input = (*Queue)(nil)

// Load appends a script to the queue, dropping carriage returns.
func (q *Queue) Load(script string) {
	for _, r := range script {
		if r == '\r' {
			continue
		}
		q.pending = append(q.pending, uint16(r))
	}
}

// Len returns the count of queued characters.
func (q *Queue) Len() int {
	return len(q.pending)
}

// Reset drops all queued characters.
func (q *Queue) Reset() {
	q.pending = q.pending[:0]
}

// Fetch dequeues the next character, blocking on Interactive if the queue
// is empty.
func (q *Queue) Fetch() (char uint16, ok bool, err error) {
	if len(q.pending) == 0 {
		if q.Interactive == nil {
			err = ErrInputClosed
			return
		}
		var line string
		line, err = q.Interactive.ReadLine()
		if err != nil {
			err = errors.Join(ErrInputClosed, err)
			return
		}
		q.Load(line)
		q.pending = append(q.pending, '\n')
	}

	char = q.pending[0]
	q.pending = q.pending[1:]
	ok = true
	return
}

// Lines reads lines from an io.Reader.
type Lines struct {
	reader *bufio.Reader
}

var _ LineReader = (*Lines)(nil)

// NewLines creates a line reader over r.
func NewLines(r io.Reader) *Lines {
	return &Lines{reader: bufio.NewReader(r)}
}

// ReadLine returns the next line. A final line without a terminator is
// returned before io.EOF.
func (lr *Lines) ReadLine() (line string, err error) {
	line, err = lr.reader.ReadString('\n')
	if err == io.EOF && len(line) > 0 {
		err = nil
	}
	if err != nil {
		return
	}

	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return
}
