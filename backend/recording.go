package backend

import (
	"github.com/gogpu/volray/gpucore"
	"github.com/gogpu/volray/recording"
)

// init registers the recording backend on package import. It is always
// available and is the fallback when no GPU opens.
func init() {
	Register(BackendRecording, func() (gpucore.Backend, error) {
		return recording.NewBackend(), nil
	})
}
