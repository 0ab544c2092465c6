package lut

import (
	"fmt"

	"github.com/gogpu/volray/gpucore"
)

// Releaser is implemented by every table kind.
type Releaser interface {
	Release()
}

// Tables is a fixed set of tables of one kind, one per component.
type Tables[T Releaser] struct {
	items []T
}

// Len returns the number of tables.
func (s *Tables[T]) Len() int { return len(s.items) }

// Table returns table i.
func (s *Tables[T]) Table(i int) T { return s.items[i] }

// Release releases every table.
func (s *Tables[T]) Release() {
	for _, t := range s.items {
		t.Release()
	}
}

// SlotName returns the shader texture name of table i for a prefix, e.g.
// "in_opacityTransferFunc" and 1 give "in_opacityTransferFunc1".
func SlotName(prefix string, i int) string {
	return fmt.Sprintf("%s%d", prefix, i)
}

// NewRGBTables creates n colour tables named prefix0..prefix{n-1}.
func NewRGBTables(b gpucore.Backend, n, width int, prefix string) *Tables[*RGBTable] {
	s := &Tables[*RGBTable]{items: make([]*RGBTable, n)}
	for i := range s.items {
		s.items[i] = NewRGBTable(b, SlotName(prefix, i), width)
	}
	return s
}

// NewOpacityTables creates n scalar opacity tables.
func NewOpacityTables(b gpucore.Backend, n, width int, prefix string) *Tables[*OpacityTable] {
	s := &Tables[*OpacityTable]{items: make([]*OpacityTable, n)}
	for i := range s.items {
		s.items[i] = NewOpacityTable(b, SlotName(prefix, i), width)
	}
	return s
}

// NewGradientOpacityTables creates n gradient opacity tables.
func NewGradientOpacityTables(b gpucore.Backend, n, width int, prefix string) *Tables[*GradientOpacityTable] {
	s := &Tables[*GradientOpacityTable]{items: make([]*GradientOpacityTable, n)}
	for i := range s.items {
		s.items[i] = NewGradientOpacityTable(b, SlotName(prefix, i), width)
	}
	return s
}

// NewTables2D creates n 2D transfer function tables.
func NewTables2D(b gpucore.Backend, n int, prefix string) *Tables[*Table2D] {
	s := &Tables[*Table2D]{items: make([]*Table2D, n)}
	for i := range s.items {
		s.items[i] = NewTable2D(b, SlotName(prefix, i))
	}
	return s
}
