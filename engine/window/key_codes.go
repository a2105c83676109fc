package window

// Virtual key codes passed to key callbacks.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyH     = 72  // H key (ASCII)
	KeyN     = 78  // N key (ASCII)
	KeyR     = 82  // R key (ASCII)
	KeyP     = 80  // P key (ASCII)
	KeySpace = 32  // Spacebar (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)
)

// Modifier is a bit set of modifier keys held during a key event.
type Modifier uint32

// Modifier bits, matching glfw.ModifierKey.
const (
	ModShift   Modifier = 0x0001
	ModControl Modifier = 0x0002
	ModAlt     Modifier = 0x0004
)

// Has reports whether every bit of m2 is set in m.
func (m Modifier) Has(m2 Modifier) bool {
	return m&m2 == m2
}
