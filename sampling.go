// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package volray

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats"
)

// defaultAllocatedTime is the frame budget in seconds when the frame does
// not set one.
const defaultAllocatedTime = 10.0

// Sampling controls the ray step.
type Sampling struct {
	// SampleDistance is the step in dataset units used when AutoAdjust
	// is off.
	SampleDistance float64

	// AutoAdjust steps by the finest world spacing of the volume and
	// lengthens the step when frames run over budget.
	AutoAdjust bool

	// LockToInputSpacing snaps SampleDistance to the spacing-derived
	// distance when AutoAdjust is off.
	LockToInputSpacing bool

	// ImageSampleDistance sets the reduction factor without AutoAdjust.
	// The minimum and maximum bound the adaptive factor.
	ImageSampleDistance        float64
	MinimumImageSampleDistance float64
	MaximumImageSampleDistance float64
}

// DefaultSampling returns auto-adjusted sampling with a unit image sample
// distance.
func DefaultSampling() Sampling {
	return Sampling{
		SampleDistance:             1,
		AutoAdjust:                 true,
		ImageSampleDistance:        1,
		MinimumImageSampleDistance: 1,
		MaximumImageSampleDistance: 10,
	}
}

// frameTimer keeps the render times the reduction factor adapts to.
type frameTimer struct {
	reductionFactor float64
	timeToDraw      float64
	bigTimeToDraw   float64
	smallTimeToDraw float64
}

func newFrameTimer() frameTimer { return frameTimer{reductionFactor: 1} }

// update recomputes the reduction factor for a frame with allocated
// seconds of budget.
func (t *frameTimer) update(s Sampling, allocated float64) float64 {
	if !s.AutoAdjust {
		if s.ImageSampleDistance > 0 {
			t.reductionFactor = 1 / s.ImageSampleDistance
		}
		return t.reductionFactor
	}
	if t.timeToDraw == 0 {
		return t.reductionFactor
	}
	if allocated <= 0 {
		allocated = defaultAllocatedTime
	}

	old := t.reductionFactor
	var timeToDraw float64
	if allocated < 1 {
		timeToDraw = t.smallTimeToDraw
		if timeToDraw == 0 {
			timeToDraw = t.bigTimeToDraw / 3
		}
	} else {
		timeToDraw = t.bigTimeToDraw
	}
	if timeToDraw == 0 {
		timeToDraw = defaultAllocatedTime
	}

	full := timeToDraw / old
	f := math.Min((allocated/full+old)/2, 1)
	switch {
	case f < 0.2:
		f = 0.1
	case f < 0.5:
		f = 0.2
	case f < 1:
		f = 0.5
	}
	if s.MaximumImageSampleDistance > 0 && 1/f > s.MaximumImageSampleDistance {
		f = 1 / s.MaximumImageSampleDistance
	}
	if s.MinimumImageSampleDistance > 0 && 1/f < s.MinimumImageSampleDistance {
		f = 1 / s.MinimumImageSampleDistance
	}
	t.reductionFactor = f
	return f
}

// record stores the duration of a finished frame in seconds.
func (t *frameTimer) record(seconds float64) {
	if seconds <= 0 {
		seconds = 0.0001
	}
	t.timeToDraw = seconds
	if t.reductionFactor == 1 {
		t.bigTimeToDraw = seconds
	} else {
		t.smallTimeToDraw = seconds
	}
}

// sampleDistance returns the ray step of a volume with the given spacing
// and point extent, placed in the world by m.
func sampleDistance(s Sampling, spacing [3]float64, extent [6]int, m mgl64.Mat4, reduction float64) float64 {
	if s.AutoAdjust {
		d := minWorldSpacing(spacing, m)
		if reduction > 0 && reduction < 1 {
			d /= reduction
		}
		return d
	}
	if s.LockToInputSpacing {
		d := SpacingAdjustedSampleDistance(spacing, extent)
		if r := s.SampleDistance / d; r < 0.999 || r > 1.001 {
			return d
		}
	}
	return s.SampleDistance
}

// minWorldSpacing returns the shortest voxel edge after the volume
// transform.
func minWorldSpacing(spacing [3]float64, m mgl64.Mat4) float64 {
	best := math.MaxFloat64
	for i := 0; i < 3; i++ {
		col := m.Col(i)
		d := math.Abs(spacing[i] * floats.Norm(col[:3], 2))
		best = math.Min(best, d)
	}
	return best
}

// SpacingAdjustedSampleDistance returns half the average spacing, reduced
// further for volumes averaging fewer than 100 voxels per axis.
func SpacingAdjustedSampleDistance(spacing [3]float64, extent [6]int) float64 {
	d := (math.Abs(spacing[0]) + math.Abs(spacing[1]) + math.Abs(spacing[2])) / 6
	n := float64((extent[1] - extent[0]) * (extent[3] - extent[2]) * (extent[5] - extent[4]))
	avg := math.Pow(n, 0.333)
	if avg < 100 {
		d *= 0.01 + (1-0.01)*avg/100
	}
	return d
}
