package volume

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/gogpu/volray/internal/parallel"
	"github.com/gogpu/volray/internal/stamp"
)

// Shape describes the sample layout of an image.
type Shape struct {
	// Extent is the inclusive point index range {x0,x1,y0,y1,z0,z1}.
	Extent [6]int

	// Components is the number of values per sample (1 to 4).
	Components int

	// CellData marks cell-centred samples: there is one sample per cell,
	// so each axis holds one sample fewer than the point extent.
	CellData bool
}

// Dimensions returns the number of points along each axis.
func (s Shape) Dimensions() [3]int {
	return [3]int{
		s.Extent[1] - s.Extent[0] + 1,
		s.Extent[3] - s.Extent[2] + 1,
		s.Extent[5] - s.Extent[4] + 1,
	}
}

// SampleExtent returns the extent of the samples: the point extent for
// point data and the cell extent (upper bound decremented) for cell data.
func (s Shape) SampleExtent() [6]int {
	e := s.Extent
	if s.CellData {
		e[1]--
		e[3]--
		e[5]--
	}
	return e
}

// SampleDims returns the number of samples along each axis. This is also
// the size of the 3D texture the samples are loaded into.
func (s Shape) SampleDims() [3]int {
	e := s.SampleExtent()
	return [3]int{e[1] - e[0] + 1, e[3] - e[2] + 1, e[5] - e[4] + 1}
}

// Samples returns the total number of samples.
func (s Shape) Samples() int {
	d := s.SampleDims()
	if d[0] <= 0 || d[1] <= 0 || d[2] <= 0 {
		return 0
	}
	return d[0] * d[1] * d[2]
}

// Image is a dense 3D array of samples placed in a local coordinate frame
// by Spacing and Origin. Samples are stored x-fastest, components
// interleaved, little-endian.
//
// Callers that mutate samples or placement must call Modified so cached
// GPU copies are refreshed.
type Image struct {
	stamp.Time

	// Spacing is the distance between points along each axis. Negative
	// spacing flips the axis.
	Spacing [3]float64

	// Origin is the position of point (0,0,0).
	Origin [3]float64

	shape Shape
	typ   ScalarType
	data  []byte

	rangeTime uint64
	ranges    [][2]float64
}

// New allocates a zero-filled image.
func New(shape Shape, t ScalarType) (*Image, error) {
	if !t.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScalarType, t)
	}
	if shape.Components < 1 || shape.Components > 4 {
		return nil, fmt.Errorf("%w: %d", ErrComponentCount, shape.Components)
	}
	n := shape.Samples()
	if n <= 0 {
		return nil, fmt.Errorf("%w: empty extent %v", ErrDataSize, shape.Extent)
	}
	img := &Image{
		Spacing: [3]float64{1, 1, 1},
		shape:   shape,
		typ:     t,
		data:    make([]byte, n*shape.Components*t.Size()),
	}
	img.Modified()
	return img, nil
}

// FromSlice builds an image from typed samples. The slice is copied.
func FromSlice[T Number](shape Shape, data []T) (*Image, error) {
	t := scalarTypeOf[T]()
	img, err := New(shape, t)
	if err != nil {
		return nil, err
	}
	if want := shape.Samples() * shape.Components; len(data) != want {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrDataSize, len(data), want)
	}
	size := t.Size()
	for i, v := range data {
		encode(t, img.data[i*size:], float64(v))
	}
	return img, nil
}

// Shape returns the sample layout.
func (m *Image) Shape() Shape { return m.shape }

// ScalarType returns the element type.
func (m *Image) ScalarType() ScalarType { return m.typ }

// Components returns the number of values per sample.
func (m *Image) Components() int { return m.shape.Components }

// Bytes returns the raw sample storage. Writing to it requires Modified.
func (m *Image) Bytes() []byte { return m.data }

// Value returns component c of sample i.
func (m *Image) Value(i, c int) float64 {
	size := m.typ.Size()
	return decode(m.typ, m.data[(i*m.shape.Components+c)*size:])
}

// SetValue stores component c of sample i. It does not call Modified.
func (m *Image) SetValue(i, c int, v float64) {
	size := m.typ.Size()
	encode(m.typ, m.data[(i*m.shape.Components+c)*size:], v)
}

// Index returns the linear sample index of (x, y, z), zero-based within
// the sample extent.
func (m *Image) Index(x, y, z int) int {
	d := m.shape.SampleDims()
	return (z*d[1]+y)*d[0] + x
}

// Bounds returns the image bounds in its local frame.
func (m *Image) Bounds() [6]float64 {
	return ComputeBounds(m.shape.Extent, m.Spacing, m.Origin, m.shape.CellData)
}

// Range returns the {min, max} of component c. Results are cached until
// the next Modified.
func (m *Image) Range(c int) [2]float64 {
	return m.Ranges()[c]
}

// Ranges returns the value range of every component. Large images are
// scanned in parallel.
func (m *Image) Ranges() [][2]float64 {
	if m.ranges != nil && m.rangeTime == m.MTime() {
		return m.ranges
	}
	nc := m.shape.Components
	pool := parallel.Shared()
	partial := make([][][2]float64, pool.Workers())
	parts := pool.For(m.shape.Samples(), rangeGrain, func(part, start, end int) {
		partial[part] = m.scanRange(start, end)
	})
	ranges := make([][2]float64, nc)
	for p := 0; p < parts; p++ {
		for c, r := range partial[p] {
			if p == 0 || r[0] < ranges[c][0] {
				ranges[c][0] = r[0]
			}
			if p == 0 || r[1] > ranges[c][1] {
				ranges[c][1] = r[1]
			}
		}
	}
	m.ranges = ranges
	m.rangeTime = m.MTime()
	return ranges
}

const rangeGrain = 1 << 16

// scanRange returns per-component ranges of samples [start, end).
func (m *Image) scanRange(start, end int) [][2]float64 {
	nc := m.shape.Components
	out := make([][2]float64, nc)

	// Scan in chunks so the scratch buffer stays small.
	const chunk = 4096
	buf := make([]float64, chunk)
	for c := 0; c < nc; c++ {
		for s := start; s < end; s += chunk {
			e := min(s+chunk, end)
			vals := buf[:e-s]
			for i := range vals {
				vals[i] = m.Value(s+i, c)
			}
			lo, hi := floats.Min(vals), floats.Max(vals)
			if s == start || lo < out[c][0] {
				out[c][0] = lo
			}
			if s == start || hi > out[c][1] {
				out[c][1] = hi
			}
		}
	}
	return out
}
