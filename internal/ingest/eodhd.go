// Package ingest pulls daily OHLCV history from the EODHD vendor API and
// writes it through the OHLCV store.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/quantoracle/internal/contracts"
	"github.com/wonny/quantoracle/pkg/httputil"
)

// eodhdBar is the vendor's EOD JSON row. Adjusted close folds splits and
// dividends into the price path, which is what return features need.
type eodhdBar struct {
	Date          string  `json:"date"` // YYYY-MM-DD
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

// EODHDClient fetches daily bars from the EODHD HTTP API
type EODHDClient struct {
	client   *httputil.Client
	baseURL  string
	apiToken string
	log      zerolog.Logger
}

// NewEODHDClient creates a vendor client. Rate limiting belongs on the
// httputil client (cfg.EODHD.RateLimit), not here.
func NewEODHDClient(client *httputil.Client, baseURL, apiToken string, log zerolog.Logger) *EODHDClient {
	return &EODHDClient{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		log:      log.With().Str("component", "ingest.eodhd").Logger(),
	}
}

// FetchEOD returns the symbol's daily history since `from`, ascending by date
func (c *EODHDClient) FetchEOD(ctx context.Context, symbol string, from time.Time) (*contracts.PriceSeries, error) {
	q := url.Values{}
	q.Set("api_token", c.apiToken)
	q.Set("fmt", "json")
	q.Set("period", "d")
	if !from.IsZero() {
		q.Set("from", from.Format("2006-01-02"))
	}
	endpoint := fmt.Sprintf("%s/eod/%s?%s", c.baseURL, url.PathEscape(symbol), q.Encode())

	resp, err := c.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("ingest: fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ingest: fetch %s: status %d: %s", symbol, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var raw []eodhdBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("ingest: fetch %s: decode: %w", symbol, err)
	}

	series := &contracts.PriceSeries{Symbol: symbol, Bars: make([]contracts.Bar, 0, len(raw))}
	for _, b := range raw {
		date, err := time.Parse("2006-01-02", b.Date)
		if err != nil {
			c.log.Warn().Str("symbol", symbol).Str("date", b.Date).Msg("skipping bar with bad date")
			continue
		}
		closePrice := b.AdjustedClose
		if closePrice == 0 {
			closePrice = b.Close
		}
		series.Bars = append(series.Bars, contracts.Bar{
			Date:   date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  closePrice,
			Volume: b.Volume,
		})
	}

	// the vendor serves ascending history, but do not depend on it
	sort.Slice(series.Bars, func(i, j int) bool { return series.Bars[i].Date.Before(series.Bars[j].Date) })

	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("ingest: fetch %s: %w", symbol, err)
	}
	return series, nil
}
