// Package shader composes the WGSL programs of the volume ray caster.
//
// A Template is WGSL text split at named insertion points. Compose calls one
// generator per point with a Features value and splices the returned
// snippets into the template. Each snippet declares the uniforms and
// textures it uses, so the uniform block layout and the texture slots of the
// resulting gpucore.Program follow from the features alone:
//
//	prog, err := shader.Compose(shader.DefaultTemplate(), shader.Features{
//		Components: 1,
//		Volumes:    1,
//		Blend:      shader.BlendComposite,
//	})
//
// Composition is deterministic. Feature combinations without generator code
// fail with ErrUnsupportedFeature instead of producing a shader that
// silently skips a concern.
package shader
