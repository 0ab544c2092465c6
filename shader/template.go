package shader

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed wgsl/raycast_vs.wgsl
var raycastVertexSource string

//go:embed wgsl/raycast_fs.wgsl
var raycastFragmentSource string

// Part is a piece of a template stage: literal text, or an insertion point
// when Text is empty and IsPoint is set.
type Part struct {
	Text    string
	Point   Point
	IsPoint bool
}

// Template is a parsed vertex and fragment template pair.
type Template struct {
	Vertex   []Part
	Fragment []Part
}

// ParseTemplate splits WGSL sources at insertion point markers. A marker
// is a line holding only "//VR::<name>". Unknown markers and markers in a
// stage that does not accept them return ErrTemplate. A point may appear
// more than once; every occurrence receives the same snippet.
func ParseTemplate(vertex, fragment string) (*Template, error) {
	vs, err := parseStage(vertex, StageVertex)
	if err != nil {
		return nil, fmt.Errorf("vertex: %w", err)
	}
	fs, err := parseStage(fragment, StageFragment)
	if err != nil {
		return nil, fmt.Errorf("fragment: %w", err)
	}
	return &Template{Vertex: vs, Fragment: fs}, nil
}

func parseStage(src string, stage Stage) ([]Part, error) {
	var (
		parts []Part
		text  strings.Builder
	)
	flush := func() {
		if text.Len() > 0 {
			parts = append(parts, Part{Text: text.String()})
			text.Reset()
		}
	}
	for i, line := range strings.SplitAfter(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, markerPrefix) {
			text.WriteString(line)
			continue
		}
		name := strings.TrimPrefix(trimmed, markerPrefix)
		p, ok := lookupPoint(name)
		if !ok {
			return nil, fmt.Errorf("%w: line %d: unknown insertion point %q", ErrTemplate, i+1, name)
		}
		if p.Stages()&stage == 0 {
			return nil, fmt.Errorf("%w: line %d: %s not allowed in this stage", ErrTemplate, i+1, name)
		}
		flush()
		parts = append(parts, Part{Point: p, IsPoint: true})
	}
	flush()
	return parts, nil
}

// Has reports whether any stage of the template contains p.
func (t *Template) Has(p Point) bool {
	for _, parts := range [][]Part{t.Vertex, t.Fragment} {
		for _, part := range parts {
			if part.IsPoint && part.Point == p {
				return true
			}
		}
	}
	return false
}

// DefaultTemplate returns the WGSL ray caster template.
func DefaultTemplate() *Template {
	t, err := ParseTemplate(raycastVertexSource, raycastFragmentSource)
	if err != nil {
		// The embedded sources are fixed at build time.
		panic(err)
	}
	return t
}
