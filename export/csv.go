// Package export writes store views as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"stock-ratings/models"
	"stock-ratings/quotes"
)

var stockHeader = []string{
	"ticker", "company", "brokerage", "action",
	"rating_from", "rating_to", "target_from", "target_to", "upside", "time",
}

func stockRow(s models.Stock) []string {
	return []string{
		s.Ticker, s.Company, s.Brokerage, s.Action,
		s.RatingFrom, s.RatingTo,
		formatFloat(s.TargetFrom), formatFloat(s.TargetTo),
		s.Upside().String(), s.Time,
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WriteStocks writes a header row followed by one row per stock.
func WriteStocks(w io.Writer, stocks []models.Stock) error {
	rows := make([][]string, 0, len(stocks)+1)
	rows = append(rows, stockHeader)
	for _, s := range stocks {
		rows = append(rows, stockRow(s))
	}
	return writeAll(w, rows)
}

// WriteRecommendations is WriteStocks with a trailing score column.
func WriteRecommendations(w io.Writer, recs []models.Recommendation) error {
	rows := make([][]string, 0, len(recs)+1)
	rows = append(rows, append(append([]string{}, stockHeader...), "recommendation_score"))
	for _, r := range recs {
		rows = append(rows, append(stockRow(r.Stock), formatFloat(r.RecommendationScore)))
	}
	return writeAll(w, rows)
}

// WriteQuoted adds price and upside-to-target columns. Rows without a quote
// leave both empty.
func WriteQuoted(w io.Writer, quoted []quotes.Quoted) error {
	header := append(append([]string{}, stockHeader...), "recommendation_score", "price", "upside_to_target")
	rows := make([][]string, 0, len(quoted)+1)
	rows = append(rows, header)
	for _, q := range quoted {
		row := append(stockRow(q.Stock), formatFloat(q.RecommendationScore))
		if q.Err != nil {
			row = append(row, "", "")
		} else {
			row = append(row, formatFloat(q.Price), q.UpsideToTarget.String())
		}
		rows = append(rows, row)
	}
	return writeAll(w, rows)
}

func writeAll(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
