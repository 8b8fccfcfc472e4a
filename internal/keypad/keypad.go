// Package keypad is the key-dispatch layer: it names calculator input
// events, parses them from text and applies them to an engine.
package keypad

import (
	"errors"
	"fmt"
	"strings"

	"github.com/codefionn/tapcalc/internal/calc"
)

// Kind identifies an input event.
type Kind string

const (
	Digit           Kind = "digit"
	Op              Kind = "op"
	Equal           Kind = "equal"
	Clear           Kind = "clear"
	ToggleSign      Kind = "toggleSign"
	Percent         Kind = "percent"
	SciFn           Kind = "sciFn"
	MemOp           Kind = "memOp"
	ParenToggle     Kind = "parenToggle"
	OpenParen       Kind = "openParen"
	CloseParen      Kind = "closeParen"
	ToggleAngleMode Kind = "toggleAngleMode"
	SetAngleMode    Kind = "angle"
	Constant        Kind = "constant"
	Answer          Kind = "answer"
	SwitchMode      Kind = "mode"
)

var (
	// ErrUnknownEvent is returned for text that names no event.
	ErrUnknownEvent = errors.New("unknown key event")
	// ErrUnavailableInMode is returned for scientific keys in basic mode.
	ErrUnavailableInMode = errors.New("key not available in basic mode")
)

// Event is one key press. Value carries the digit, operator, function,
// memory operation, constant or mode name where the kind needs one.
type Event struct {
	Kind  Kind
	Value string
}

func (e Event) String() string {
	if e.Value == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s:%q", e.Kind, e.Value)
}

// kinds maps every event kind to whether it carries a value.
var kinds = map[Kind]bool{
	Digit:           true,
	Op:              true,
	Equal:           false,
	Clear:           false,
	ToggleSign:      false,
	Percent:         false,
	SciFn:           true,
	MemOp:           true,
	ParenToggle:     false,
	OpenParen:       false,
	CloseParen:      false,
	ToggleAngleMode: false,
	SetAngleMode:    true,
	Constant:        true,
	Answer:          false,
	SwitchMode:      true,
}

// scientificOnly lists the kinds basic mode rejects.
var scientificOnly = map[Kind]bool{
	SciFn:           true,
	MemOp:           true,
	ParenToggle:     true,
	OpenParen:       true,
	CloseParen:      true,
	ToggleAngleMode: true,
	SetAngleMode:    true,
	Constant:        true,
	Answer:          true,
}

// Parse reads the "kind" or kind:"value" form, e.g. `digit:"7"`, `op:+`
// or `equal`. Quotes around the value are optional.
func Parse(s string) (Event, error) {
	s = strings.TrimSpace(s)
	name, value, hasValue := strings.Cut(s, ":")
	kind := Kind(name)
	needsValue, known := kinds[kind]
	if !known {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, s)
	}
	value = strings.Trim(value, `"`)
	if needsValue != (hasValue && value != "") {
		return Event{}, fmt.Errorf("%w: %q has wrong arity", ErrUnknownEvent, s)
	}
	return Event{Kind: kind, Value: value}, nil
}

// SequenceOption configures ParseSequence.
type SequenceOption func(*sequenceParser)

// WithDecimalSeparator accepts sep as the decimal point inside numbers,
// next to ".". It should match the engine's formatter.
func WithDecimalSeparator(sep string) SequenceOption {
	return func(p *sequenceParser) {
		if sep != "" {
			p.sep = sep
		}
	}
}

type sequenceParser struct {
	sep string
}

// ParseSequence reads a whitespace separated key sequence such as
// "12.5 × ( 3 + 4 ) =". Numbers expand to one digit event per digit, the
// decimal point becoming digit:".". Tokens in the kind:value form are
// accepted too.
func ParseSequence(s string, opts ...SequenceOption) ([]Event, error) {
	p := &sequenceParser{sep: "."}
	for _, opt := range opts {
		opt(p)
	}

	var events []Event
	for _, tok := range strings.Fields(s) {
		evs, err := p.parseToken(tok)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}
	return events, nil
}

func (p *sequenceParser) parseToken(tok string) ([]Event, error) {
	if events, ok := p.number(tok); ok {
		return events, nil
	}
	if op, ok := calc.ParseOperator(tok); ok {
		return []Event{{Kind: Op, Value: string(op)}}, nil
	}
	if name, ok := calc.CanonicalFunction(tok); ok {
		return []Event{{Kind: SciFn, Value: name}}, nil
	}

	switch lower := strings.ToLower(tok); lower {
	case "=":
		return []Event{{Kind: Equal}}, nil
	case "c", "ac", "clear":
		return []Event{{Kind: Clear}}, nil
	case "±", "+/-", "neg":
		return []Event{{Kind: ToggleSign}}, nil
	case "%":
		return []Event{{Kind: Percent}}, nil
	case "(":
		return []Event{{Kind: OpenParen}}, nil
	case ")":
		return []Event{{Kind: CloseParen}}, nil
	case "()":
		return []Event{{Kind: ParenToggle}}, nil
	case "mc", "m+", "m-", "mr":
		return []Event{{Kind: MemOp, Value: lower}}, nil
	case "π", "pi":
		return []Event{{Kind: Constant, Value: "π"}}, nil
	case "e":
		return []Event{{Kind: Constant, Value: "e"}}, nil
	case "ans":
		return []Event{{Kind: Answer}}, nil
	case "deg", "rad":
		return []Event{{Kind: SetAngleMode, Value: lower}}, nil
	case "drg":
		return []Event{{Kind: ToggleAngleMode}}, nil
	case "basic", "scientific":
		return []Event{{Kind: SwitchMode, Value: lower}}, nil
	}

	if strings.Contains(tok, ":") {
		ev, err := Parse(tok)
		if err != nil {
			return nil, err
		}
		return []Event{ev}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, tok)
}

// number expands tok into digit events if it is made of ASCII digits and
// decimal points only.
func (p *sequenceParser) number(tok string) ([]Event, bool) {
	var events []Event
	for rest := tok; rest != ""; {
		switch {
		case rest[0] >= '0' && rest[0] <= '9':
			events = append(events, Event{Kind: Digit, Value: rest[:1]})
			rest = rest[1:]
		case rest[0] == '.':
			events = append(events, Event{Kind: Digit, Value: "."})
			rest = rest[1:]
		case strings.HasPrefix(rest, p.sep):
			events = append(events, Event{Kind: Digit, Value: "."})
			rest = rest[len(p.sep):]
		default:
			return nil, false
		}
	}
	return events, len(events) > 0
}

// Dispatch applies ev to engine. In basic mode scientific keys are
// rejected with ErrUnavailableInMode and the engine is not touched.
func Dispatch(engine *calc.Engine, ev Event) error {
	if engine.Mode() == calc.ModeBasic && scientificOnly[ev.Kind] {
		return fmt.Errorf("%w: %s", ErrUnavailableInMode, ev)
	}

	switch ev.Kind {
	case Digit:
		return engine.InputDigit(ev.Value)
	case Op:
		return engine.InputOperator(ev.Value)
	case Equal:
		return engine.InputEqual()
	case Clear:
		engine.HandleClear()
		return nil
	case ToggleSign:
		return engine.HandleToggleSign()
	case Percent:
		return engine.HandlePercentage()
	case SciFn:
		return engine.HandleScientificFunction(ev.Value)
	case MemOp:
		return engine.HandleMemoryOperation(ev.Value)
	case ParenToggle:
		return engine.HandleParenthesis()
	case OpenParen:
		return engine.OpenParenthesis()
	case CloseParen:
		return engine.CloseParenthesis()
	case ToggleAngleMode:
		engine.ToggleAngleMode()
		return nil
	case SetAngleMode:
		angle, err := calc.ParseAngleMode(ev.Value)
		if err != nil {
			return err
		}
		engine.SetAngleMode(angle)
		return nil
	case Constant:
		return engine.InputConstant(ev.Value)
	case Answer:
		return engine.RecallAnswer()
	case SwitchMode:
		mode, err := calc.ParseMode(ev.Value)
		if err != nil {
			return err
		}
		engine.SwitchMode(mode)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownEvent, ev)
}

// Run dispatches events in order and returns the error of each one that
// failed, keyed by position. Failing events do not stop the run.
func Run(engine *calc.Engine, events []Event) map[int]error {
	errs := make(map[int]error)
	for i, ev := range events {
		if err := Dispatch(engine, ev); err != nil {
			errs[i] = err
		}
	}
	return errs
}
