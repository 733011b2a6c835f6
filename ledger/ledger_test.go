package ledger

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{in: "10", want: 10 * MutezPerTez},
		{in: "10 XTZ", want: 10 * MutezPerTez},
		{in: "0.25xtz", want: 250_000},
		{in: "1.000001", want: 1_000_001},
		{in: ".5", want: 500_000},
		{in: "1.0000001", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
		{in: "2.", want: 2 * MutezPerTez},
		{in: "1.+5", wantErr: true},
		{in: "1.-5", wantErr: true},
		{in: "+1", wantErr: true},
		{in: ".", wantErr: true},
		{in: "1.5e3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmountSignedFraction(t *testing.T) {
	_, err := ParseAmount("1.-5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")
	assert.NotContains(t, err.Error(), "out of range")
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "10 XTZ", Amount(10*MutezPerTez).String())
	assert.Equal(t, "2.5 XTZ", Amount(2_500_000).String())
	assert.Equal(t, "0.0001 XTZ", Amount(100).String())
	assert.Equal(t, "0 XTZ", Amount(0).String())
}

func TestPayNeverExceedsHalf(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		l := New(10*MutezPerTez, rand.New(rand.NewSource(seed)))
		for i := 0; i < 40; i++ {
			before := l.Remaining()
			amount := l.Pay()
			assert.GreaterOrEqual(t, amount, Amount(0))
			assert.LessOrEqual(t, amount, before/2)
			assert.Equal(t, before-amount, l.Remaining())
			assert.Greater(t, l.Remaining(), Amount(0))
			assert.Zero(t, amount%payStep)
		}
	}
}

func TestPayOnTinyBalance(t *testing.T) {
	l := New(1, rand.New(rand.NewSource(1)))
	assert.Equal(t, Amount(0), l.Pay())
	assert.Equal(t, Amount(1), l.Remaining())
}

func TestPayAllIdempotent(t *testing.T) {
	l := New(10*MutezPerTez, rand.New(rand.NewSource(7)))
	first := l.Pay()
	all := l.PayAll()

	assert.Equal(t, l.Deposit(), first+all)
	assert.Equal(t, Amount(0), l.Remaining())
	assert.Equal(t, Amount(0), l.PayAll())
	assert.Equal(t, Amount(0), l.Remaining())
	assert.Equal(t, Amount(0), l.Pay())
}

func TestSameSeedSamePayments(t *testing.T) {
	a := New(10*MutezPerTez, rand.New(rand.NewSource(42)))
	b := New(10*MutezPerTez, rand.New(rand.NewSource(42)))
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Pay(), b.Pay())
	}
}
