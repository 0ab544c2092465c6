// Package stamp provides the process-wide modification clock.
//
// Every object that participates in rebuild decisions (images, transfer
// functions, properties, the mapper itself) embeds a [Time]. Comparing two
// stamps tells which object changed last, independent of wall-clock time.
package stamp

import "sync/atomic"

var clock atomic.Uint64

// Next returns a new, strictly increasing modification time.
func Next() uint64 {
	return clock.Add(1)
}

// Time is an embeddable modification timestamp.
// The zero value has never been modified.
type Time struct {
	t uint64
}

// Modified marks the object as changed now.
func (s *Time) Modified() {
	s.t = Next()
}

// MTime returns the last modification time.
func (s *Time) MTime() uint64 {
	return s.t
}
