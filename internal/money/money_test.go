package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
		err  bool
	}{
		{in: "12.34", want: "12.34"},
		{in: "  12.34 ", want: "12.34"},
		{in: "-5", want: "-5.00"},
		{in: "", want: "0.00"},
		{in: "0.005", want: "0.01"},
		{in: "-0.005", want: "-0.01"},
		{in: "1e2", want: "100.00"},
		{in: "abc", err: true},
		{in: "12.3.4", err: true},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.err {
			require.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, Format(got), "input %q", tc.in)
	}
}

func TestRoundIsIdempotent(t *testing.T) {
	t.Parallel()

	d := decimal.RequireFromString("10.555")
	once := Round(d)
	require.Equal(t, "10.56", Format(once))
	require.True(t, once.Equal(Round(once)))
}
