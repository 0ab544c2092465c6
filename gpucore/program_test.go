package gpucore

import (
	"strings"
	"testing"
)

func TestNewUniformLayoutOffsets(t *testing.T) {
	layout, err := NewUniformLayout([]UniformField{
		{Name: "sampleDistance", Type: UniformFloat},
		{Name: "cellStep", Type: UniformVec3},
		{Name: "noOfLights", Type: UniformInt},
		{Name: "windowSize", Type: UniformVec2},
		{Name: "projection", Type: UniformMat4},
		{Name: "clippingPlanes", Type: UniformVec4, Count: 3},
		{Name: "scale", Type: UniformFloat},
	})
	if err != nil {
		t.Fatalf("NewUniformLayout() error = %v", err)
	}

	want := map[string]int{
		"sampleDistance": 0,
		"cellStep":       16,
		"noOfLights":     28,
		"windowSize":     32,
		"projection":     48,
		"clippingPlanes": 112,
		"scale":          160,
	}
	for name, off := range want {
		f, ok := layout.Field(name)
		if !ok {
			t.Fatalf("Field(%q) missing", name)
		}
		if f.Offset != off {
			t.Errorf("Field(%q).Offset = %d, want %d", name, f.Offset, off)
		}
	}
	if layout.Size != 176 {
		t.Errorf("Size = %d, want 176", layout.Size)
	}
}

func TestNewUniformLayoutRejects(t *testing.T) {
	tests := []struct {
		name   string
		fields []UniformField
	}{
		{"duplicate", []UniformField{{Name: "a", Type: UniformFloat}, {Name: "a", Type: UniformInt}}},
		{"scalar array", []UniformField{{Name: "a", Type: UniformFloat, Count: 4}}},
		{"unknown type", []UniformField{{Name: "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewUniformLayout(tt.fields); err == nil {
				t.Error("NewUniformLayout() error = nil, want error")
			}
		})
	}
}

func TestUniformBlockSetters(t *testing.T) {
	layout, err := NewUniformLayout([]UniformField{
		{Name: "sampleDistance", Type: UniformFloat},
		{Name: "components", Type: UniformInt},
		{Name: "flags", Type: UniformIVec4, Count: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	b := NewUniformBlock(&layout)
	b.SetFloat("sampleDistance", 0.25)
	b.SetInt("components", 3)
	b.SetFloat("notDeclared", 1)
	b.SetInt("sampleDistance", 7) // wrong type is ignored
	b.SetIVec4At("flags", 1, [4]int32{1, 0, 1, 0})
	b.SetIVec4At("flags", 2, [4]int32{9, 9, 9, 9}) // out of range is ignored

	if got, ok := b.Float("sampleDistance"); !ok || got != 0.25 {
		t.Errorf("Float(sampleDistance) = %v, %v, want 0.25, true", got, ok)
	}
	if got, ok := b.Int("components"); !ok || got != 3 {
		t.Errorf("Int(components) = %v, %v, want 3, true", got, ok)
	}
	if b.Has("notDeclared") {
		t.Error("Has(notDeclared) = true")
	}
	f, _ := layout.Field("flags")
	if got := b.Bytes()[f.Offset+16]; got != 1 {
		t.Errorf("flags[1].x low byte = %d, want 1", got)
	}
}

func TestUniformLayoutWGSLStruct(t *testing.T) {
	layout, err := NewUniformLayout([]UniformField{
		{Name: "a", Type: UniformFloat},
		{Name: "planes", Type: UniformVec4, Count: 4},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := layout.WGSLStruct("Params")
	for _, want := range []string{"struct Params {", "a: f32,", "planes: array<vec4<f32>, 4>,"} {
		if !strings.Contains(got, want) {
			t.Errorf("WGSLStruct() = %q, missing %q", got, want)
		}
	}
}

func TestProgramSlotOf(t *testing.T) {
	p := &Program{Textures: []TextureSlot{{Name: "in_volume0"}, {Name: "in_noiseSampler"}}}
	if got := p.SlotOf("in_noiseSampler"); got != 1 {
		t.Errorf("SlotOf() = %d, want 1", got)
	}
	if got := p.SlotOf("missing"); got != -1 {
		t.Errorf("SlotOf(missing) = %d, want -1", got)
	}
}
