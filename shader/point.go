package shader

import "fmt"

// Stage is a shader stage.
type Stage uint8

// Stages.
const (
	StageVertex Stage = 1 << iota
	StageFragment
)

// Point is a named insertion point of a template. Points are composed in
// declaration order; the order fixes the uniform layout and texture slots.
type Point uint8

// Insertion points.
const (
	PointBindings Point = iota

	PointClipPosition
	PointTextureCoords

	PointOutputDec
	PointBaseDec
	PointRayDirectionDec
	PointTerminationDec
	PointOpacityDec
	PointGradientDec
	PointLightingDec
	PointColorDec
	PointShadingDec
	PointCroppingDec
	PointClippingDec
	PointMaskDec

	PointBaseInit
	PointTerminationInit
	PointShadingInit
	PointClippingInit
	PointRenderToImageInit
	PointDepthPassInit

	PointTerminationImpl
	PointCroppingImpl
	PointClippingImpl
	PointMaskImpl
	PointShadingImpl
	PointRenderToImageImpl
	PointDepthPassImpl

	PointBaseExit
	PointShadingExit
	PointPickingExit
	PointRenderToImageExit
	PointDepthPassExit

	numPoints
)

type pointInfo struct {
	name  string
	stage Stage
}

var points = [numPoints]pointInfo{
	PointBindings: {"Bindings", StageVertex | StageFragment},

	PointClipPosition:  {"ClipPosition::Impl", StageVertex},
	PointTextureCoords: {"TextureCoords::Impl", StageVertex},

	PointOutputDec:       {"Output::Dec", StageFragment},
	PointBaseDec:         {"Base::Dec", StageFragment},
	PointRayDirectionDec: {"RayDirection::Dec", StageFragment},
	PointTerminationDec:  {"Termination::Dec", StageFragment},
	PointOpacityDec:      {"Opacity::Dec", StageFragment},
	PointGradientDec:     {"Gradient::Dec", StageFragment},
	PointLightingDec:     {"Lighting::Dec", StageFragment},
	PointColorDec:        {"Color::Dec", StageFragment},
	PointShadingDec:      {"Shading::Dec", StageFragment},
	PointCroppingDec:     {"Cropping::Dec", StageFragment},
	PointClippingDec:     {"Clipping::Dec", StageFragment},
	PointMaskDec:         {"Mask::Dec", StageFragment},

	PointBaseInit:          {"Base::Init", StageFragment},
	PointTerminationInit:   {"Termination::Init", StageFragment},
	PointShadingInit:       {"Shading::Init", StageFragment},
	PointClippingInit:      {"Clipping::Init", StageFragment},
	PointRenderToImageInit: {"RenderToImage::Init", StageFragment},
	PointDepthPassInit:     {"DepthPass::Init", StageFragment},

	PointTerminationImpl:   {"Termination::Impl", StageFragment},
	PointCroppingImpl:      {"Cropping::Impl", StageFragment},
	PointClippingImpl:      {"Clipping::Impl", StageFragment},
	PointMaskImpl:          {"Mask::Impl", StageFragment},
	PointShadingImpl:       {"Shading::Impl", StageFragment},
	PointRenderToImageImpl: {"RenderToImage::Impl", StageFragment},
	PointDepthPassImpl:     {"DepthPass::Impl", StageFragment},

	PointBaseExit:          {"Base::Exit", StageFragment},
	PointShadingExit:       {"Shading::Exit", StageFragment},
	PointPickingExit:       {"Picking::Exit", StageFragment},
	PointRenderToImageExit: {"RenderToImage::Exit", StageFragment},
	PointDepthPassExit:     {"DepthPass::Exit", StageFragment},
}

// markerPrefix introduces an insertion point on its own template line.
const markerPrefix = "//VR::"

// String returns the marker name of the point.
func (p Point) String() string {
	if p < numPoints {
		return points[p].name
	}
	return fmt.Sprintf("Point(%d)", p)
}

// Stages returns the stages the point may appear in.
func (p Point) Stages() Stage {
	if p < numPoints {
		return points[p].stage
	}
	return 0
}

// Marker returns the template line that stands for the point.
func (p Point) Marker() string { return markerPrefix + p.String() }

// lookupPoint returns the point with marker name n.
func lookupPoint(n string) (Point, bool) {
	for i := range points {
		if points[i].name == n {
			return Point(i), true
		}
	}
	return 0, false
}
