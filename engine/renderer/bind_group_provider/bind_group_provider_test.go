package bind_group_provider

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct{ released int }

func (h *fakeHandle) Release() { h.released++ }

type fakeBuffer struct {
	fakeHandle
	data []byte
}

func (b *fakeBuffer) Size() uint64 { return uint64(len(b.data)) }

type fakeWriter struct {
	fail error
}

func (w *fakeWriter) WriteBuffer(buf backend.Buffer, offset uint64, data []byte) error {
	if w.fail != nil {
		return w.fail
	}
	copy(buf.(*fakeBuffer).data[offset:], data)
	return nil
}

func TestUniformProviderRelease(t *testing.T) {
	layout, group := &fakeHandle{}, &fakeHandle{}
	buf := &fakeBuffer{data: make([]byte, 16)}

	p := NewUniformProvider("uniforms", backend.UniformBinding{Layout: layout, Buffer: buf, BindGroup: group})
	assert.Equal(t, "uniforms", p.Label())
	assert.Same(t, buf, p.Buffer(0))
	assert.Same(t, group, p.BindGroup())

	p.Release()
	p.Release()

	assert.Equal(t, 1, layout.released)
	assert.Equal(t, 1, group.released)
	assert.Equal(t, 1, buf.released)
	assert.Nil(t, p.BindGroup())
	assert.Empty(t, p.Buffers())
}

func TestWriteAll(t *testing.T) {
	buf := &fakeBuffer{data: make([]byte, 8)}
	p := NewBindGroupProvider("p", WithBuffer(0, buf))

	t.Run("writes in order", func(t *testing.T) {
		err := WriteAll(&fakeWriter{},
			BufferWrite{Provider: p, Binding: 0, Offset: 0, Data: []byte{1, 2, 3, 4}},
			BufferWrite{Provider: p, Binding: 0, Offset: 2, Data: []byte{9}},
		)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 9, 4, 0, 0, 0, 0}, buf.data)
	})

	t.Run("missing binding", func(t *testing.T) {
		err := WriteAll(&fakeWriter{}, BufferWrite{Provider: p, Binding: 3, Data: []byte{1}})
		assert.ErrorIs(t, err, ErrNoBuffer)
	})

	t.Run("joins writer errors", func(t *testing.T) {
		boom := errors.New("boom")
		err := WriteAll(&fakeWriter{fail: boom},
			BufferWrite{Provider: p, Binding: 0, Data: []byte{1}},
			BufferWrite{Provider: p, Binding: 1, Data: []byte{1}},
		)
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, err, ErrNoBuffer)
	})
}
