// Package quotes annotates recommendations with live market prices.
package quotes

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/piquette/finance-go/quote"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stock-ratings/models"
)

// ErrNoQuote is returned when the market data provider knows no price for a
// symbol.
var ErrNoQuote = errors.New("no quote available")

// Quoter looks up the latest price of a ticker.
type Quoter interface {
	Quote(ctx context.Context, symbol string) (float64, error)
}

// FinanceQuoter reads regular market prices through finance-go.
type FinanceQuoter struct {
	get func(symbol string) (float64, bool, error)
}

func NewFinanceQuoter() *FinanceQuoter {
	return &FinanceQuoter{get: financeGet}
}

func financeGet(symbol string) (float64, bool, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return 0, false, err
	}
	if q == nil {
		return 0, false, nil
	}
	return q.RegularMarketPrice, true, nil
}

func (f *FinanceQuoter) Quote(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	price, ok, err := f.get(symbol)
	if err != nil {
		return 0, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if !ok || price <= 0 {
		return 0, fmt.Errorf("quote %s: %w", symbol, ErrNoQuote)
	}
	return price, nil
}

// Quoted is a recommendation with its market price attached.
type Quoted struct {
	models.Recommendation
	Price          float64         `json:"price"`
	UpsideToTarget decimal.Decimal `json:"upside_to_target"` // percent from Price to TargetTo
	Err            error           `json:"-"`
}

// Workers bounds the number of concurrent lookups in Annotate.
const Workers = 4

// Annotate quotes every recommendation. A failed lookup is kept on its row
// in Err; the result has one entry per input, in input order.
func Annotate(ctx context.Context, q Quoter, recs []models.Recommendation, logger zerolog.Logger) []Quoted {
	out := make([]Quoted, len(recs))
	sem := make(chan struct{}, Workers)
	var wg sync.WaitGroup

	for i, rec := range recs {
		out[i].Recommendation = rec

		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			price, err := q.Quote(ctx, ticker)
			if err != nil {
				logger.Warn().Err(err).Str("ticker", ticker).Msg("Quote lookup failed")
				out[i].Err = err
				return
			}
			out[i].Price = price
			out[i].UpsideToTarget = UpsideToTarget(price, out[i].TargetTo)
		}(i, rec.Ticker)
	}

	wg.Wait()
	return out
}

// UpsideToTarget is the percent change from price to target, rounded to two
// places. It is zero when price is not positive.
func UpsideToTarget(price, target float64) decimal.Decimal {
	if price <= 0 {
		return decimal.Zero
	}
	p := decimal.NewFromFloat(price)
	return decimal.NewFromFloat(target).Sub(p).Div(p).Mul(decimal.NewFromInt(100)).Round(2)
}
