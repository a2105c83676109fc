package bind_group_provider

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
)

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// BufferWriter uploads bytes into a GPU buffer. backend.RendererBackend satisfies it.
type BufferWriter interface {
	WriteBuffer(buf backend.Buffer, offset uint64, data []byte) error
}

// ErrNoBuffer is returned for a write whose provider has no buffer at the target binding.
var ErrNoBuffer = errors.New("provider has no buffer at binding")

// WriteAll performs every write in order. A failed write does not stop the remaining ones;
// all failures are joined into the returned error.
//
// Parameters:
//   - w: the writer that uploads the bytes
//   - writes: the writes to perform
//
// Returns:
//   - error: the joined write errors, or nil
func WriteAll(w BufferWriter, writes ...BufferWrite) error {
	var errs []error
	for _, bw := range writes {
		buf := bw.Provider.Buffer(bw.Binding)
		if buf == nil {
			errs = append(errs, fmt.Errorf("%s binding %d: %w", bw.Provider.Label(), bw.Binding, ErrNoBuffer))
			continue
		}
		if err := w.WriteBuffer(buf, bw.Offset, bw.Data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
