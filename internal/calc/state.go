package calc

import (
	"fmt"
	"strings"
)

// AngleMode selects how trigonometric functions read their input.
type AngleMode int

const (
	Radians AngleMode = iota
	Degrees
)

func (a AngleMode) String() string {
	if a == Degrees {
		return "deg"
	}
	return "rad"
}

// ParseAngleMode accepts "rad"/"radians" and "deg"/"degrees".
func ParseAngleMode(s string) (AngleMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rad", "radian", "radians", "":
		return Radians, nil
	case "deg", "degree", "degrees":
		return Degrees, nil
	}
	return Radians, fmt.Errorf("unknown angle mode %q", s)
}

// Mode is the calculator layout: basic keys only, or the scientific pad.
type Mode int

const (
	ModeBasic Mode = iota
	ModeScientific
)

func (m Mode) String() string {
	if m == ModeScientific {
		return "scientific"
	}
	return "basic"
}

// ParseMode accepts "basic" and "scientific".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic":
		return ModeBasic, nil
	case "scientific", "sci", "":
		return ModeScientific, nil
	}
	return ModeScientific, fmt.Errorf("unknown calculator mode %q", s)
}

// State is a snapshot of the engine, safe to keep after further input.
type State struct {
	DisplayValue       string
	InputFormula       string
	FormulaHistoryLine string
	FirstOperand       *float64
	SecondOperand      *float64
	PendingOperator    Operator
	IsStartingNewInput bool
	LastResult         *float64
	AngleMode          AngleMode
	MemoryRegister     float64
	Mode               Mode
}

func ptr(v float64) *float64 {
	return &v
}

func copyPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return ptr(*p)
}
