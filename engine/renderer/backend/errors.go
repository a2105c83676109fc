package backend

import (
	"errors"
	"fmt"
)

// ErrDeviceLost is wrapped by a GpuError when the device is no longer usable.
var ErrDeviceLost = errors.New("device lost")

// CompileError is returned when the backend rejects shader source.
// Diagnostic holds the backend's message verbatim.
type CompileError struct {
	Label      string
	Diagnostic string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile shader %q: %s", e.Label, e.Diagnostic)
}

// PipelineBuildError is returned when compiled modules cannot be linked into a pipeline,
// for example when the layout does not match the shader interface.
type PipelineBuildError struct {
	Label string
	Err   error
}

func (e *PipelineBuildError) Error() string {
	return fmt.Sprintf("build pipeline %q: %v", e.Label, e.Err)
}

func (e *PipelineBuildError) Unwrap() error {
	return e.Err
}

// GpuError is returned for device-level failures outside of shader compilation and
// pipeline linking, such as a failed buffer upload after device loss.
type GpuError struct {
	Op  string
	Err error
}

func (e *GpuError) Error() string {
	return fmt.Sprintf("gpu %s: %v", e.Op, e.Err)
}

func (e *GpuError) Unwrap() error {
	return e.Err
}

// IsBuildError reports whether err contains a CompileError or a PipelineBuildError.
func IsBuildError(err error) bool {
	var ce *CompileError
	var pe *PipelineBuildError
	return errors.As(err, &ce) || errors.As(err, &pe)
}

// IsGpuError reports whether err contains a GpuError.
func IsGpuError(err error) bool {
	var ge *GpuError
	return errors.As(err, &ge)
}
