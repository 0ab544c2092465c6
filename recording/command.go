package recording

import "github.com/gogpu/volray/gpucore"

// CommandType identifies the type of a recorded backend call.
type CommandType uint8

const (
	// Texture commands
	CmdCreateTexture  CommandType = iota // Allocate a texture
	CmdWriteTexture                      // Upload texels
	CmdSetFilter                         // Change sampling filter
	CmdBindTexture                       // Bind a texture to a slot
	CmdCopyDepth                         // Copy the depth buffer
	CmdReadTexture                       // Read back texels
	CmdDestroyTexture                    // Release a texture

	// Buffer commands
	CmdCreateBuffer  // Allocate a buffer
	CmdWriteBuffer   // Upload buffer data
	CmdDestroyBuffer // Release a buffer

	// Program commands
	CmdCompileProgram // Compile and link a program
	CmdDestroyProgram // Release a program
	CmdUseProgram     // Activate a program
	CmdSetUniforms    // Replace the uniform block

	// Draw commands
	CmdSetRenderTarget // Select attachments
	CmdSetViewport     // Set viewport
	CmdSetRenderState  // Replace fixed-function state
	CmdDrawIndexed     // Draw triangles
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdCreateTexture:   "CreateTexture",
	CmdWriteTexture:    "WriteTexture",
	CmdSetFilter:       "SetFilter",
	CmdBindTexture:     "BindTexture",
	CmdCopyDepth:       "CopyDepth",
	CmdReadTexture:     "ReadTexture",
	CmdDestroyTexture:  "DestroyTexture",
	CmdCreateBuffer:    "CreateBuffer",
	CmdWriteBuffer:     "WriteBuffer",
	CmdDestroyBuffer:   "DestroyBuffer",
	CmdCompileProgram:  "CompileProgram",
	CmdDestroyProgram:  "DestroyProgram",
	CmdUseProgram:      "UseProgram",
	CmdSetUniforms:     "SetUniforms",
	CmdSetRenderTarget: "SetRenderTarget",
	CmdSetViewport:     "SetViewport",
	CmdSetRenderState:  "SetRenderState",
	CmdDrawIndexed:     "DrawIndexed",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// IsUpload reports whether the command transfers data to the GPU.
func (c CommandType) IsUpload() bool {
	return c == CmdWriteTexture || c == CmdWriteBuffer || c == CmdCopyDepth
}

// Command is one recorded backend call.
type Command struct {
	Type CommandType

	// Texture, Buffer and Program name the resource the call touched.
	Texture gpucore.TextureID
	Buffer  gpucore.BufferID
	Program gpucore.ProgramID

	// Slot is the binding slot for CmdBindTexture.
	Slot int

	// Bytes is the payload size of uploads.
	Bytes int

	// Label is the resource label, when the call has one.
	Label string
}
