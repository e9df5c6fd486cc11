// Package input defines the keyboard actions the session loop consumes.
package input

// Key identifies one recognized keyboard action.
type Key int

const (
	KeyNone Key = iota
	KeyQuit
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyStepUp
	KeyStepDown
)

// Keyboard delivers at most one pending key per poll, without blocking.
type Keyboard interface {
	Poll() (Key, bool)
}
