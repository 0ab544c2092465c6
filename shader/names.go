package shader

import "strconv"

// Texture names. Per-component and per-volume textures append the index.
const (
	VolumePrefix        = "volume"
	ColorTablePrefix    = "colorTable"
	OpacityTablePrefix  = "opacityTable"
	GradientTablePrefix = "gradientTable"
	Transfer2DPrefix    = "transfer2D"

	NoiseTexture     = "noiseTex"
	DepthTexture     = "depthTex"
	DepthPassTexture = "depthPassTex"
	MaskTexture      = "maskTex"
	MaskColorTable1  = "maskColor1"
	MaskColorTable2  = "maskColor2"
)

// Indexed returns prefix followed by i, e.g. "opacityTable2".
func Indexed(prefix string, i int) string { return prefix + strconv.Itoa(i) }

// Uniform names.
const (
	UniformProjection        = "projectionMatrix"
	UniformInverseProjection = "inverseProjectionMatrix"
	UniformModelView         = "modelViewMatrix"
	UniformVolumeMatrix      = "volumeMatrix"

	// UniformDatasetToTexture maps dataset coordinates to (adjusted)
	// texture coordinates.
	UniformDatasetToTexture = "datasetToTexture"
	UniformTextureToEye     = "textureToEye"
	UniformEyeToTexture     = "eyeToTexture"

	// UniformTextureToEyeIT is the inverse transpose of textureToEye, used
	// for normals.
	UniformTextureToEyeIT = "textureToEyeIT"

	UniformTexMin          = "texMin"
	UniformTexMax          = "texMax"
	UniformScale           = "scale"
	UniformBias            = "bias"
	UniformSampleDistance  = "sampleDistance"
	UniformCameraPosition  = "cameraPosition"
	UniformProjectionDir   = "projectionDirection"
	UniformViewportOrigin  = "viewportOrigin"
	UniformInvViewportSize = "inverseViewportSize"
	UniformCellStep        = "cellStep"
	UniformCellScale       = "cellScale"
	UniformComponentWeight = "componentWeight"

	UniformAmbient       = "ambient"
	UniformDiffuse       = "diffuse"
	UniformSpecular      = "specular"
	UniformSpecularPower = "specularPower"

	UniformLightAmbient     = "lightAmbientColor"
	UniformLightDiffuse     = "lightDiffuseColor"
	UniformLightSpecular    = "lightSpecularColor"
	UniformLightDirection   = "lightDirection"
	UniformLightPosition    = "lightPosition"
	UniformLightAttenuation = "lightAttenuation"

	// UniformLightCone holds cone angle in degrees, exponent and a
	// positional flag per light.
	UniformLightCone    = "lightCone"
	UniformNumLights    = "numLights"
	UniformTwoSided     = "twoSidedLighting"
	UniformAverageRange = "averageRange"

	// UniformCroppingPlanes holds xmin, xmax, ymin, ymax in element 0 and
	// zmin, zmax in element 1, in texture coordinates.
	UniformCroppingPlanes = "croppingPlanes"

	// UniformCroppingFlags holds 32 region flags; entry 0 is unused.
	UniformCroppingFlags = "croppingFlags"

	// UniformClippingPlanes holds origin and normal of each plane in
	// texture coordinates, two elements per plane.
	UniformClippingPlanes   = "clippingPlanes"
	UniformClippingCount    = "clippingPlaneCount"
	UniformMaskBlendFactor  = "maskBlendFactor"
	UniformPropID           = "propID"
	UniformTextureExtents   = "textureExtents"
	UniformVolumeTransforms = "volumeTransforms"
	UniformVolumeScaleBias  = "volumeScaleBias"
	UniformIsoValues        = "isoValues"
	UniformIsoCount         = "isoCount"
	UniformSlicePlane       = "slicePlane"
)
