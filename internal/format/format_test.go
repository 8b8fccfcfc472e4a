package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	f := Default()

	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"integer", 15, "15"},
		{"fraction", 2.5, "2.5"},
		{"negative", -42.75, "-42.75"},
		{"zero", 0, "0"},
		{"negative zero", math.Copysign(0, -1), "0"},
		{"float noise trimmed", 0.1 + 0.2, "0.3"},
		{"fifteen digits", 1.0 / 3.0, "0.333333333333333"},
		{"ten billion stays fixed", 1e10, "10000000000"},
		{"large goes scientific", 1.5e12, "1.5e12"},
		{"small goes scientific", 1.23e-8, "1.23e-8"},
		{"threshold small stays fixed", 1e-7, "0.0000001"},
		{"scientific mantissa capped", 123456789012345, "1.2345678901e14"},
		{"negative scientific", -2e20, "-2e20"},
		{"nan", math.NaN(), ErrorSentinel},
		{"plus infinity", math.Inf(1), PosInfinity},
		{"minus infinity", math.Inf(-1), NegInfinity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Format(tt.in))
		})
	}
}

func TestLocaleSeparator(t *testing.T) {
	de, err := New("de-DE")
	require.NoError(t, err)
	assert.Equal(t, ",", de.DecimalSeparator())
	assert.Equal(t, "2,5", de.Format(2.5))
	assert.Equal(t, "1,5e12", de.Format(1.5e12))

	v, err := de.Parse("2,5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	en, err := New("")
	require.NoError(t, err)
	assert.Equal(t, ".", en.DecimalSeparator())
	assert.Equal(t, "en", en.Locale())
}

func TestLocaleSeparatorNativeDigits(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{"fa", "٫"},
		{"bn", "."},
		{"mr", "."},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			f, err := New(tt.locale)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.DecimalSeparator())
			assert.Equal(t, "1"+tt.want+"5", f.Format(1.5))
		})
	}
}

func TestInvalidLocale(t *testing.T) {
	_, err := New("not a locale!!")
	assert.Error(t, err)
}

func TestParseRejectsSentinels(t *testing.T) {
	f := Default()
	for _, s := range []string{"", ErrorSentinel, PosInfinity, NegInfinity, "NaN", "Inf", "(3 + 4", "abc"} {
		_, err := f.Parse(s)
		assert.ErrorIs(t, err, ErrNotANumber, "input %q", s)
	}
}

func TestParseEdgeInputs(t *testing.T) {
	f := Default()

	v, err := f.Parse(".")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = f.Parse("12.")
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)

	v, err = f.Parse("1.5e12")
	require.NoError(t, err)
	assert.Equal(t, 1.5e12, v)
}

func TestRoundTrip(t *testing.T) {
	f := Default()
	values := []float64{0, 1, -1, 0.5, 123.456, 98765.4321, 1e-6, 2.5e-3, 9999999999.5, -0.000123, 7.0 / 3.0}

	for _, x := range values {
		got, err := f.Parse(f.Format(x))
		require.NoError(t, err, "value %v", x)
		tolerance := 1e-9 * math.Max(1, math.Abs(x))
		assert.InDelta(t, x, got, tolerance, "round trip of %v via %q", x, f.Format(x))
	}
}
