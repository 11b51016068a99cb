package sentiment

import (
	"fmt"
	"strings"
)

// Mode selects which analysis variant runs.
type Mode string

const (
	ModeBasic      Mode = "basic"
	ModeAdvanced   Mode = "advanced"
	ModeBlockchain Mode = "blockchain"
)

// Modes lists the supported modes in presentation order.
func Modes() []Mode {
	return []Mode{ModeBasic, ModeAdvanced, ModeBlockchain}
}

// ParseMode normalizes and validates a mode string. An empty value means basic.
func ParseMode(raw string) (Mode, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch normalized {
	case "", string(ModeBasic):
		return ModeBasic, nil
	case string(ModeAdvanced):
		return ModeAdvanced, nil
	case string(ModeBlockchain), "consensus":
		return ModeBlockchain, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
	}
}
