// Package format turns calculator values into display strings and back.
//
// Formatting follows the handheld-calculator conventions: NaN shows the
// error sentinel, infinities show ∞, very large or very small magnitudes
// switch to scientific notation with a lowercase "e", and everything else
// is printed as a plain decimal with trailing zeros trimmed. Grouping
// separators are never emitted so a formatted value can always be parsed
// back by Parse.
package format

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	// ErrorSentinel is shown for NaN results (division by zero, domain errors).
	ErrorSentinel = "Error"
	// PosInfinity is shown for +Inf.
	PosInfinity = "∞"
	// NegInfinity is shown for -Inf.
	NegInfinity = "-∞"

	// MaxFractionDigits caps the fractional digits of fixed notation.
	MaxFractionDigits = 15
	// MaxScientificFractionDigits caps the mantissa digits in scientific notation.
	MaxScientificFractionDigits = 10

	smallThreshold = 1e-7
	largeThreshold = 1e10
)

// ErrNotANumber is returned by Parse for sentinels and non-numeric text.
var ErrNotANumber = errors.New("not a number")

// Formatter formats numbers for a locale. The zero value is not usable; use New.
type Formatter struct {
	tag       language.Tag
	separator string
}

// New returns a Formatter for a BCP 47 locale such as "en" or "de-DE".
// An empty locale means "en".
func New(locale string) (*Formatter, error) {
	if strings.TrimSpace(locale) == "" {
		locale = "en"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return &Formatter{tag: tag, separator: decimalSeparator(tag)}, nil
}

// Default returns the "en" formatter.
func Default() *Formatter {
	return &Formatter{tag: language.English, separator: "."}
}

// decimalSeparator asks x/text how the locale renders 1.5 and keeps the
// runes that are not digits. Locales with native digits (fa, bn) print
// those digits too, so trimming ASCII "1" and "5" is not enough.
func decimalSeparator(tag language.Tag) string {
	p := message.NewPrinter(tag)
	s := p.Sprint(number.Decimal(1.5))
	sep := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
	if sep == "" {
		return "."
	}
	return sep
}

// Locale returns the locale tag in use.
func (f *Formatter) Locale() string {
	return f.tag.String()
}

// DecimalSeparator returns the separator used between integer and fraction.
func (f *Formatter) DecimalSeparator() string {
	return f.separator
}

// Format renders v for display.
func (f *Formatter) Format(v float64) string {
	switch {
	case math.IsNaN(v):
		return ErrorSentinel
	case math.IsInf(v, 1):
		return PosInfinity
	case math.IsInf(v, -1):
		return NegInfinity
	}

	abs := math.Abs(v)
	if abs > 0 && (abs < smallThreshold || abs > largeThreshold) {
		return f.localize(scientific(v))
	}
	return f.localize(fixed(v))
}

func fixed(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s)-dot-1 > MaxFractionDigits {
		s = trimFraction(strconv.FormatFloat(v, 'f', MaxFractionDigits, 64))
	}
	if s == "-0" {
		return "0"
	}
	return s
}

func scientific(v float64) string {
	s := strconv.FormatFloat(v, 'e', MaxScientificFractionDigits, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	mantissa = trimFraction(mantissa)

	sign := ""
	switch {
	case strings.HasPrefix(exp, "-"):
		sign = "-"
		exp = exp[1:]
	case strings.HasPrefix(exp, "+"):
		exp = exp[1:]
	}
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	}
	return mantissa + "e" + sign + exp
}

func trimFraction(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func (f *Formatter) localize(s string) string {
	if f.separator == "." {
		return s
	}
	return strings.Replace(s, ".", f.separator, 1)
}

// Canonical rewrites locale text into the "." form strconv understands.
func (f *Formatter) Canonical(s string) string {
	if f.separator == "." {
		return s
	}
	return strings.ReplaceAll(s, f.separator, ".")
}

// Parse reads a display string back into a number. Sentinels, empty text
// and anything non-finite fail with ErrNotANumber.
func (f *Formatter) Parse(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", ErrorSentinel, PosInfinity, NegInfinity:
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	if strings.ContainsAny(s, "iInN") {
		// strconv accepts "Inf" and "NaN" spellings; the display never does.
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}

	canonical := f.Canonical(s)
	if canonical == "." || canonical == "-." {
		return 0, nil
	}
	v, err := strconv.ParseFloat(canonical, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	return v, nil
}
