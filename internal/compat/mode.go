package compat

import (
	"fmt"
	"strings"

	"animexport/internal/config"
	"animexport/internal/tagcode"
)

// ErrTagLevelOutOfRange is returned when a custom level lies outside
// [tagcode.Min, tagcode.Max].
var ErrTagLevelOutOfRange = tagcode.ErrLevelOutOfRange

type modeKind uint8

const (
	kindStable modeKind = iota
	kindBeta
	kindCustom
)

// Mode is exactly one of Stable, Beta or Custom(level). The zero value is
// Stable.
type Mode struct {
	kind  modeKind
	level int
}

var (
	// Stable targets the newest level broadly supported by deployed players.
	Stable = Mode{kind: kindStable}
	// Beta targets the newest level this build can write.
	Beta = Mode{kind: kindBeta}
)

// Custom targets an explicit numeric level.
func Custom(level int) Mode {
	return Mode{kind: kindCustom, level: level}
}

// IsCustom reports whether m carries a user supplied level.
func (m Mode) IsCustom() bool { return m.kind == kindCustom }

func (m Mode) String() string {
	switch m.kind {
	case kindBeta:
		return "beta"
	case kindCustom:
		return fmt.Sprintf("custom(%d)", m.level)
	default:
		return "stable"
	}
}

// ParseMode builds a Mode from its configuration name. level is only used
// for the custom mode.
func ParseMode(name string, level int) (Mode, error) {
	switch config.TagMode(strings.ToLower(strings.TrimSpace(name))) {
	case config.TagModeStable, "":
		return Stable, nil
	case config.TagModeBeta:
		return Beta, nil
	case config.TagModeCustom:
		return Custom(level), nil
	default:
		return Mode{}, fmt.Errorf("unknown tag mode %q", name)
	}
}

// ModeOf returns the mode configured in param.
func ModeOf(param config.ExportParam) (Mode, error) {
	return ParseMode(string(param.TagMode), param.TagLevel)
}

// ResolveLevel maps a mode onto the numeric level features are compared
// against. Custom levels outside the writable range are rejected rather than
// clamped.
func ResolveLevel(m Mode) (tagcode.Code, error) {
	switch m.kind {
	case kindBeta:
		return tagcode.Max, nil
	case kindCustom:
		if err := tagcode.CheckLevel(m.level); err != nil {
			return 0, err
		}
		return tagcode.Code(m.level), nil
	default:
		return tagcode.Stable, nil
	}
}
