package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "89.90", want: "89.90"},
		{in: "129", want: "129.00"},
		{in: "0.01", want: "0.01"},
		{in: "1.005", wantErr: true},
		{in: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, Format(got))
		})
	}
}

func TestCentsRoundTrip(t *testing.T) {
	d := MustParse("308.80")
	assert.Equal(t, int64(30880), ToCents(d))
	assert.True(t, FromCents(30880).Equal(d))
	assert.Equal(t, "691.20", Format(FromCents(100000-30880)))
}

func TestLineTotalHasNoFloatDrift(t *testing.T) {
	total := LineTotal(MustParse("89.90"), 2).Add(LineTotal(MustParse("129.00"), 1))
	assert.Equal(t, "308.80", Format(total))

	var sum = Zero
	for i := 0; i < 10; i++ {
		sum = sum.Add(MustParse("0.10"))
	}
	assert.Equal(t, "1.00", Format(sum))
}
