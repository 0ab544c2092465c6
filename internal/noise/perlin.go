// Package noise generates the tileable Perlin noise texture used to jitter
// ray start positions.
package noise

import (
	"math"
	"math/rand/v2"
)

// Perlin is an improved Perlin noise generator that repeats every Period
// lattice cells along x and y.
type Perlin struct {
	perm   [512]uint8
	period int
}

// NewPerlin returns a generator with a permutation derived from seed.
// Period must divide 256; other values are rounded down to a power of two.
func NewPerlin(seed uint64, period int) *Perlin {
	p := &Perlin{period: 256}
	for p.period > 1 && p.period > period {
		p.period >>= 1
	}
	if period < 1 {
		p.period = 256
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	idx := r.Perm(256)
	for i := 0; i < 512; i++ {
		p.perm[i] = uint8(idx[i&255])
	}
	return p
}

// Period returns the repeat distance in lattice cells.
func (p *Perlin) Period() int { return p.period }

// Noise3 evaluates noise at (x, y, z). The result lies in [-1, 1] and is 0
// on lattice points.
func (p *Perlin) Noise3(x, y, z float64) float64 {
	fx, fy, fz := math.Floor(x), math.Floor(y), math.Floor(z)
	x, y, z = x-fx, y-fy, z-fz
	mask := p.period - 1
	xi, yi, zi := int(fx)&mask, int(fy)&mask, int(fz)&255
	xj, yj := (xi+1)&mask, (yi+1)&mask

	u, v, w := fade(x), fade(y), fade(z)
	perm := &p.perm
	a, b := int(perm[xi]), int(perm[xj])
	aa, ab := int(perm[a+yi])+zi, int(perm[a+yj])+zi
	ba, bb := int(perm[b+yi])+zi, int(perm[b+yj])+zi

	return lerp(w,
		lerp(v,
			lerp(u, grad(perm[aa], x, y, z), grad(perm[ba], x-1, y, z)),
			lerp(u, grad(perm[ab], x, y-1, z), grad(perm[bb], x-1, y-1, z))),
		lerp(v,
			lerp(u, grad(perm[aa+1], x, y, z-1), grad(perm[ba+1], x-1, y, z-1)),
			lerp(u, grad(perm[ab+1], x, y-1, z-1), grad(perm[bb+1], x-1, y-1, z-1))))
}

func fade(t float64) float64 { return t * t * t * (t*(t*6-15) + 10) }

func lerp(t, a, b float64) float64 { return a + t*(b-a) }

// grad returns the dot product of one of 12 edge gradients with (x, y, z).
func grad(hash uint8, x, y, z float64) float64 {
	h := hash & 15
	u := y
	if h < 8 {
		u = x
	}
	var v float64
	switch {
	case h < 4:
		v = y
	case h == 12 || h == 14:
		v = x
	default:
		v = z
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}

// Field returns a size x size row-major field in [-amplitude, amplitude].
// cells is the number of lattice cells across the field; the field tiles
// seamlessly when cells divides 256.
func Field(seed uint64, size, cells int, amplitude float64) []float32 {
	if cells < 1 {
		cells = 1
	}
	p := NewPerlin(seed, cells)
	out := make([]float32, size*size)
	step := float64(p.Period()) / float64(size)
	for j := 0; j < size; j++ {
		y := (float64(j) + 0.5) * step
		for i := 0; i < size; i++ {
			x := (float64(i) + 0.5) * step
			v := p.Noise3(x, y, 0.5) * amplitude
			out[j*size+i] = float32(math.Max(-amplitude, math.Min(amplitude, v)))
		}
	}
	return out
}
