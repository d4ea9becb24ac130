// Package reader implements the Input Stream and Parser of spec.md §4.1–4.2:
// an append-only pull buffer feeding a recursive-descent reader that turns
// source text into tagged value.Value forms, resolving symbols into
// packages and rewriting quote/quasiquote along the way.
package reader

// Stream is the append-only text buffer with a cursor described in
// spec.md §4.1. It is a pull source for Parser; the host (or Context) is
// responsible for calling Add whenever more source text becomes
// available.
type Stream struct {
	buf    []byte
	cursor int
	saved  int
	hasSave bool
}

// NewStream creates an empty stream.
func NewStream() *Stream {
	return &Stream{}
}

// Add appends text to the buffer.
func (s *Stream) Add(text string) {
	s.buf = append(s.buf, text...)
}

// Peek returns the byte under the cursor without advancing, or 0 at EOF.
func (s *Stream) Peek() byte {
	if s.cursor >= len(s.buf) {
		return 0
	}
	return s.buf[s.cursor]
}

// PeekAt returns the byte offset bytes ahead of the cursor, or 0 past EOF.
func (s *Stream) PeekAt(offset int) byte {
	i := s.cursor + offset
	if i >= len(s.buf) {
		return 0
	}
	return s.buf[i]
}

// Read returns the byte under the cursor and advances, or 0 at EOF (the
// cursor does not advance past the end).
func (s *Stream) Read() byte {
	if s.cursor >= len(s.buf) {
		return 0
	}
	b := s.buf[s.cursor]
	s.cursor++
	return b
}

// AtEOF reports whether the cursor has reached the end of the buffer.
func (s *Stream) AtEOF() bool {
	return s.cursor >= len(s.buf)
}

// Save checkpoints the current cursor position in a single slot, overwriting
// any prior save.
func (s *Stream) Save() {
	s.saved = s.cursor
	s.hasSave = true
}

// Restore rewinds to the last Save point, returning true if one existed.
func (s *Stream) Restore() bool {
	if !s.hasSave {
		return false
	}
	s.cursor = s.saved
	s.hasSave = false
	return true
}

// ClearSave discards the outstanding save checkpoint without rewinding to
// it, so a subsequent Trim is free to discard the consumed prefix. Called
// once a parse attempt succeeds and the checkpoint is no longer needed.
func (s *Stream) ClearSave() {
	s.hasSave = false
}

// Trim discards everything before the cursor, called after a successful
// full read so the buffer does not grow unbounded across a long-lived
// Context. Trim is a no-op while a save checkpoint is outstanding, since
// trimming would invalidate it.
func (s *Stream) Trim() {
	if s.hasSave {
		return
	}
	s.buf = s.buf[s.cursor:]
	s.cursor = 0
}
