package canvas

import (
	"errors"
	"fmt"
)

var ErrUnknownMode = errors.New("unknown tool mode")

// Mode is the active tool. It decides how the next pointer-down is read.
type Mode int

const (
	Select Mode = iota
	Text
	Rect
	Draw
	Signature
	Checkmark
	Image
)

var modeNames = [...]string{"select", "text", "rect", "draw", "signature", "checkmark", "image"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode maps a tool name to its Mode.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if n == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// placementWidth is the default width of an object placed in mode m.
func (m Mode) placementWidth() (float64, bool) {
	switch m {
	case Signature:
		return SignatureWidth, true
	case Image:
		return ImageWidth, true
	}
	return 0, false
}

// State is where the controller is within a pointer interaction.
type State int

const (
	Idle State = iota
	Drawing
	Moving
	Resizing
	Placing
)

var stateNames = [...]string{"idle", "drawing", "moving", "resizing", "placing"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
