package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEngineWindowClampsSize(t *testing.T) {
	w := newEngineWindow(WithWidth(10000), WithHeight(50), WithSizeLimits(400, 300, 1920, 1080))
	assert.Equal(t, 1920, w.Width())
	assert.Equal(t, 300, w.Height())
	assert.Equal(t, "oxy-noise", w.Title())
}

func TestSetTitleIsDeferred(t *testing.T) {
	w := newEngineWindow(WithTitle("a"))

	_, changed := w.takeTitle()
	assert.False(t, changed)

	w.SetTitle("a")
	_, changed = w.takeTitle()
	assert.False(t, changed, "same title is not a change")

	w.SetTitle("fasthash + perlin_21")
	title, changed := w.takeTitle()
	assert.True(t, changed)
	assert.Equal(t, "fasthash + perlin_21", title)
	_, changed = w.takeTitle()
	assert.False(t, changed)
}

func TestKeyAndResizeDispatch(t *testing.T) {
	w := newEngineWindow()

	var keys []uint32
	var shifted bool
	w.SetKeyDownCallback(func(k uint32, mods Modifier) {
		keys = append(keys, k)
		shifted = mods.Has(ModShift)
	})
	var sizes [][2]int
	w.SetResizeCallback(func(width, height int) { sizes = append(sizes, [2]int{width, height}) })

	w.handleKeyDown(KeyH, ModShift|ModControl)
	w.handleKeyDown(KeyN, 0)
	assert.Equal(t, []uint32{KeyH, KeyN}, keys)
	assert.False(t, shifted)

	w.handleResize(800, 600)
	w.handleResize(0, 0) // minimised
	assert.Equal(t, [][2]int{{800, 600}}, sizes)
	assert.Equal(t, 0, w.Width())

	w.handleKeyDown(KeyEsc, 0)
	assert.False(t, w.IsRunning())
	assert.Len(t, keys, 2)
}
