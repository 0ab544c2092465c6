// Package volume holds the scalar image model and its 3D texture loader.
//
// An [Image] is a dense array of 1 to 4 component samples of any fixed-size
// numeric type, placed in a local frame by spacing and origin. [Loader]
// turns an image into a normalized 3D texture on a gpucore.Backend.
//
// # Normalization
//
// Every component is mapped onto [0,1] over its value range. The element
// type decides where that happens:
//
//	uint8, float32         direct upload; the shader applies Scale and Bias
//	every other type       slice-by-slice float conversion on the CPU
//
// [ComputeNormalization] returns both halves of the map so tests and the
// shader agree on the numbers.
//
// # Bounds
//
// [ComputeBounds] is shared with mask volumes. Negative spacing flips an
// axis without breaking bounds[2i] <= bounds[2i+1].
package volume
