package volray

import (
	"fmt"

	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/lut"
	"github.com/gogpu/volray/shader"
	"github.com/gogpu/volray/volume"
)

// tableSet holds the lookup tables of every component or volume.
type tableSet struct {
	colors    *lut.Tables[*lut.RGBTable]
	opacities *lut.Tables[*lut.OpacityTable]
	gradients *lut.Tables[*lut.GradientOpacityTable]
	tables2D  *lut.Tables[*lut.Table2D]
	labels    [2]*lut.RGBTable
}

func newTableSet(b gpucore.Backend, width int) *tableSet {
	n := max(shader.MaxComponents, shader.MaxVolumes)
	return &tableSet{
		colors:    lut.NewRGBTables(b, n, width, shader.ColorTablePrefix),
		opacities: lut.NewOpacityTables(b, n, width, shader.OpacityTablePrefix),
		gradients: lut.NewGradientOpacityTables(b, n, width, shader.GradientTablePrefix),
		tables2D:  lut.NewTables2D(b, n, shader.Transfer2DPrefix),
		labels: [2]*lut.RGBTable{
			lut.NewRGBTable(b, shader.MaskColorTable1, width),
			lut.NewRGBTable(b, shader.MaskColorTable2, width),
		},
	}
}

// bind binds every table p samples.
func (s *tableSet) bind(p *gpucore.Program) error {
	for i := 0; i < s.colors.Len(); i++ {
		for _, t := range []interface{ Bind(*gpucore.Program) error }{
			s.colors.Table(i), s.opacities.Table(i), s.gradients.Table(i), s.tables2D.Table(i),
		} {
			if err := t.Bind(p); err != nil {
				return err
			}
		}
	}
	for _, t := range s.labels {
		if err := t.Bind(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *tableSet) release() {
	s.colors.Release()
	s.opacities.Release()
	s.gradients.Release()
	s.tables2D.Release()
	for _, t := range s.labels {
		t.Release()
	}
}

// tableRange returns the scalar range of component c, widened by one when
// all samples are equal.
func tableRange(img *volume.Image, c int) [2]float64 {
	r := img.Range(c)
	if r[0] == r[1] {
		r[1] = r[0] + 1
	}
	return r
}

// correction returns the opacity correction of a blend mode.
func correction(b shader.BlendMode) lut.Correction {
	switch b {
	case shader.BlendComposite:
		return lut.CorrectionBeerLambert
	case shader.BlendAdditive:
		return lut.CorrectionScale
	default:
		return lut.CorrectionNone
	}
}

// tableUpdate is the input of one frame's table refresh.
type tableUpdate struct {
	features       shader.Features
	volumes        []*Volume
	sampleDistance float64
}

// refresh rebuilds the tables the program samples and returns the number
// of rebuilt tables.
func (s *tableSet) refresh(u tableUpdate) (int, error) {
	f := u.features
	built := 0
	note := func(ok bool, err error) error {
		if ok {
			built++
		}
		return err
	}

	if f.Volumes > 1 {
		for i, v := range u.volumes {
			rng := tableRange(v.Image, 0)
			filter := v.Property.Interpolation
			if err := note(s.colors.Table(i).Update(v.Property.colorFunc(0, rng), rng, filter)); err != nil {
				return built, fmt.Errorf("volray: colour table %d: %w", i, err)
			}
			if err := note(s.opacities.Table(i).Update(v.Property.opacityFunc(0, rng), rng, correction(f.Blend),
				u.sampleDistance, v.Property.unitDistance(0), filter)); err != nil {
				return built, fmt.Errorf("volray: opacity table %d: %w", i, err)
			}
		}
		return built, nil
	}

	img, prop := u.volumes[0].Image, u.volumes[0].Property
	filter := prop.Interpolation
	nc := img.Components()

	type job struct{ table, colorComp, opacityComp int }
	var jobs []job
	switch {
	case nc == 1:
		jobs = []job{{0, 0, 0}}
	case f.Independent:
		for i := 0; i < nc; i++ {
			jobs = append(jobs, job{i, i, i})
		}
	case nc == 4:
		// Dependent RGBA samples carry their own colour.
		jobs = []job{{0, -1, 3}}
	default:
		jobs = []job{{0, 0, nc - 1}}
	}

	for _, j := range jobs {
		t := j.table
		if f.Transfer == shader.Transfer2D {
			if err := note(s.tables2D.Table(t).Update(prop.Transfer2D[t], filter)); err != nil {
				return built, fmt.Errorf("volray: 2D table %d: %w", t, err)
			}
			continue
		}
		orng := tableRange(img, j.opacityComp)
		if j.colorComp >= 0 {
			crng := tableRange(img, j.colorComp)
			if err := note(s.colors.Table(t).Update(prop.colorFunc(t, crng), crng, filter)); err != nil {
				return built, fmt.Errorf("volray: colour table %d: %w", t, err)
			}
		}
		if err := note(s.opacities.Table(t).Update(prop.opacityFunc(t, orng), orng, correction(f.Blend),
			u.sampleDistance, prop.unitDistance(t), filter)); err != nil {
			return built, fmt.Errorf("volray: opacity table %d: %w", t, err)
		}
		if f.GradientOpacity.Has(t) {
			if err := note(s.gradients.Table(t).Update(prop.GradientOpacity[t], orng, filter)); err != nil {
				return built, fmt.Errorf("volray: gradient opacity table %d: %w", t, err)
			}
		}
	}

	if f.Mask == shader.MaskLabelMap {
		rng := tableRange(img, 0)
		for k, t := range s.labels {
			if err := note(t.Update(prop.labelColorFunc(k, rng), rng, filter)); err != nil {
				return built, fmt.Errorf("volray: label colour table %d: %w", k+1, err)
			}
		}
	}
	return built, nil
}
