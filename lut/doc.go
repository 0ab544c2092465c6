// Package lut turns transfer functions into lookup textures.
//
// A [PiecewiseFunction] or [ColorTransferFunction] is sampled over a scalar
// range into a fixed-width 1D texture. Tables remember what they were built
// from and upload again only when something relevant changed:
//
//	changed, err := table.Update(fn, rng, lut.CorrectionBeerLambert, d, u, gpucore.FilterLinear)
//
// Opacity tables adjust opacities for the ray step size. For composite
// blending each opacity a becomes 1-(1-a)^(d/u); for additive blending it
// is scaled by d/u.
//
// Every table binds to the program slot named after it, so a table whose
// texture the current program does not sample is silently skipped.
package lut
