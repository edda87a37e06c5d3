// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

const streamBufferSize = 4096

// TextStream decodes a chunked text/plain body. Each Next call returns the
// text of one read, never splitting a UTF-8 sequence across chunks.
type TextStream struct {
	body    io.ReadCloser
	buf     []byte
	carry   []byte
	done    bool
	readErr error
}

func newTextStream(body io.ReadCloser) *TextStream {
	return &TextStream{body: body, buf: make([]byte, streamBufferSize)}
}

// NewTextStream wraps r as a TextStream. It is exported for callers that
// already hold a response body, such as tests and replays.
func NewTextStream(r io.ReadCloser) *TextStream {
	return newTextStream(r)
}

// Next returns the next decoded chunk. It returns io.EOF once the stream
// has ended and every byte has been returned. Empty reads are skipped.
func (s *TextStream) Next() (string, error) {
	for {
		if s.done {
			if s.readErr != nil {
				return "", s.readErr
			}
			return "", io.EOF
		}

		n, err := s.body.Read(s.buf)
		data := append(s.carry, s.buf[:n]...)
		s.carry = nil

		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.readErr = fmt.Errorf("%w: %v", ErrTransport, err)
			}
			// A dangling partial sequence at EOF is emitted as-is, which
			// decodes to U+FFFD like a lenient text decoder.
			if len(data) > 0 {
				return string(data), nil
			}
			continue
		}

		cut := completePrefix(data)
		if cut < len(data) {
			s.carry = append([]byte(nil), data[cut:]...)
		}
		if cut > 0 {
			return string(data[:cut]), nil
		}
	}
}

// Close releases the response body.
func (s *TextStream) Close() error {
	return s.body.Close()
}

// completePrefix returns the length of the longest prefix of b that does
// not end inside a UTF-8 sequence.
func completePrefix(b []byte) int {
	// A sequence is at most 4 bytes, so only the tail needs checking.
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		c := b[i]
		if c < utf8.RuneSelf {
			return len(b)
		}
		if utf8.RuneStart(c) {
			if utf8.FullRune(b[i:]) {
				return len(b)
			}
			return i
		}
	}
	return len(b)
}
