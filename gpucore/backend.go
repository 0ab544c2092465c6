package gpucore

// Backend abstracts the graphics API used by the ray caster.
//
// The frame driver, lookup tables, texture loaders and geometry builder
// are written once against this interface; concrete backends translate
// the calls to a driver (gogpu/wgpu HAL) or record them (tests, headless).
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - IDs become invalid after destruction and must not be reused
//
// Backends are used from the goroutine that owns the graphics context.
// They are not required to be safe for concurrent use.
type Backend interface {
	// Name returns the backend identifier (e.g., "wgpu", "recording").
	Name() string

	// === Capabilities ===

	// Capabilities returns the current capability set. The result is
	// queried fresh on every call; callers compare ContextID to detect
	// a context change and re-run dependent probes.
	Capabilities() Capabilities

	// === Textures ===

	// CreateTexture allocates a texture without uploading data.
	CreateTexture(desc *TextureDescriptor) (TextureID, error)

	// WriteTexture uploads texels into region. data is tightly packed in
	// the texture's format, x fastest, then y, then z.
	WriteTexture(id TextureID, region TextureRegion, data []byte) error

	// SetTextureFilter changes the sampling filter of an existing texture.
	SetTextureFilter(id TextureID, filter FilterMode) error

	// BindTexture makes the texture visible to the active program at slot.
	// Binding is idempotent.
	BindTexture(slot int, id TextureID) error

	// CopyDepth copies the viewport region of the current depth buffer into
	// a Depth32Float texture of the same size.
	CopyDepth(id TextureID, viewport Viewport) error

	// ReadTexture reads back a 2D texture as tightly packed texels.
	ReadTexture(id TextureID) ([]byte, error)

	// DestroyTexture releases a texture.
	DestroyTexture(id TextureID)

	// === Buffers ===

	// CreateBuffer creates a GPU buffer of size bytes.
	CreateBuffer(size int, usage BufferUsage) (BufferID, error)

	// WriteBuffer uploads data at offset.
	WriteBuffer(id BufferID, offset int, data []byte) error

	// DestroyBuffer releases a buffer.
	DestroyBuffer(id BufferID)

	// === Programs ===

	// CompileProgram compiles and links a vertex+fragment program. Compile
	// and link failures are returned as *CompileError.
	CompileProgram(p *Program) (ProgramID, error)

	// DestroyProgram releases a program.
	DestroyProgram(id ProgramID)

	// UseProgram makes id the active program.
	UseProgram(id ProgramID) error

	// SetUniforms replaces the program's uniform block.
	SetUniforms(id ProgramID, block []byte) error

	// === Drawing ===

	// SetRenderTarget selects the attachments written by DrawIndexed.
	SetRenderTarget(t Target) error

	// SetViewport sets the viewport rectangle.
	SetViewport(v Viewport)

	// RenderState returns the current fixed-function state.
	RenderState() RenderState

	// SetRenderState replaces the fixed-function state.
	SetRenderState(s RenderState)

	// DrawIndexed draws triangles from the bound buffers.
	DrawIndexed(call DrawCall) error

	// Close releases every resource owned by the backend.
	Close()
}

// Capabilities describes what the active graphics context supports.
type Capabilities struct {
	// ContextID identifies the graphics context. It changes when the
	// context is lost and recreated.
	ContextID uint64

	// MaxTextureSize1D is the maximum width of a 1D texture.
	MaxTextureSize1D int

	// MaxTextureSize2D is the maximum width or height of a 2D texture.
	MaxTextureSize2D int

	// MaxTextureSize3D is the maximum extent of a 3D texture on any axis.
	MaxTextureSize3D int

	// FloatTextures reports support for floating point texture formats.
	FloatTextures bool

	// NPOTTextures reports support for non-power-of-two textures.
	NPOTTextures bool

	// FramebufferObjects reports support for offscreen render targets.
	FramebufferObjects bool

	// DepthCopy reports that CopyDepth is implemented.
	DepthCopy bool

	// Diagnostic is a human-readable description of missing capabilities.
	Diagnostic string
}
