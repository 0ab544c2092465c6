package lut

import "errors"

// ErrDegenerateRange is returned by table updates whose range has
// min == max. The previously built table stays in place.
var ErrDegenerateRange = errors.New("lut: degenerate range")
