package quotes

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-ratings/models"
)

type fakeQuoter struct {
	prices   map[string]float64
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeQuoter) Quote(ctx context.Context, symbol string) (float64, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	price, ok := f.prices[symbol]
	if !ok {
		return 0, ErrNoQuote
	}
	return price, nil
}

func rec(ticker string, target float64) models.Recommendation {
	return models.Recommendation{Stock: models.Stock{Ticker: ticker, TargetTo: target}, RecommendationScore: 8}
}

func TestAnnotate(t *testing.T) {
	q := &fakeQuoter{prices: map[string]float64{"ACME": 80, "GLBX": 50}}
	recs := []models.Recommendation{rec("ACME", 100), rec("MISSING", 10), rec("GLBX", 40)}

	out := Annotate(context.Background(), q, recs, zerolog.Nop())

	require.Len(t, out, 3)
	assert.Equal(t, "ACME", out[0].Ticker)
	assert.Equal(t, 80.0, out[0].Price)
	assert.Equal(t, "25", out[0].UpsideToTarget.String())
	assert.NoError(t, out[0].Err)

	assert.Equal(t, "MISSING", out[1].Ticker)
	assert.ErrorIs(t, out[1].Err, ErrNoQuote)
	assert.True(t, out[1].UpsideToTarget.IsZero())

	assert.Equal(t, "-20", out[2].UpsideToTarget.String())
}

func TestAnnotate_BoundedConcurrency(t *testing.T) {
	prices := map[string]float64{}
	var recs []models.Recommendation
	for _, ticker := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"} {
		prices[ticker] = 1
		recs = append(recs, rec(ticker, 2))
	}
	q := &fakeQuoter{prices: prices}

	out := Annotate(context.Background(), q, recs, zerolog.Nop())

	assert.Len(t, out, 10)
	assert.LessOrEqual(t, q.peak.Load(), int32(Workers))
}

func TestAnnotate_Empty(t *testing.T) {
	out := Annotate(context.Background(), &fakeQuoter{}, nil, zerolog.Nop())
	assert.Empty(t, out)
}

func TestUpsideToTarget(t *testing.T) {
	tests := []struct {
		price, target float64
		want          string
	}{
		{100, 125, "25"},
		{3, 4, "33.33"},
		{150, 100, "-33.33"},
		{0, 10, "0"},
		{-1, 10, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UpsideToTarget(tt.price, tt.target).String())
	}
}

func TestFinanceQuoter(t *testing.T) {
	tests := []struct {
		name    string
		get     func(string) (float64, bool, error)
		want    float64
		wantErr error
	}{
		{"price", func(string) (float64, bool, error) { return 12.5, true, nil }, 12.5, nil},
		{"unknown symbol", func(string) (float64, bool, error) { return 0, false, nil }, 0, ErrNoQuote},
		{"zero price", func(string) (float64, bool, error) { return 0, true, nil }, 0, ErrNoQuote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &FinanceQuoter{get: tt.get}
			price, err := f.Quote(context.Background(), "ACME")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, price)
		})
	}

	t.Run("provider error", func(t *testing.T) {
		boom := errors.New("rate limited")
		f := &FinanceQuoter{get: func(string) (float64, bool, error) { return 0, false, boom }}
		_, err := f.Quote(context.Background(), "ACME")
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "ACME")
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		f := &FinanceQuoter{get: func(string) (float64, bool, error) { called = true; return 1, true, nil }}
		_, err := f.Quote(ctx, "ACME")
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}
