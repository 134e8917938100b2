package universe

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/wonny/quantoracle/pkg/httputil"
)

// symbolRe accepts NSE ticker cells; anything else in the constituents
// table (names, weights, sector labels) is skipped.
var symbolRe = regexp.MustCompile(`^[A-Z][A-Z0-9&-]{0,19}$`)

// NSEScraper refreshes the universe from an NSE index constituents page
type NSEScraper struct {
	client  *httputil.Client
	baseURL string
	log     zerolog.Logger
}

// NewNSEScraper creates a scraper against the given base URL
func NewNSEScraper(client *httputil.Client, baseURL string, log zerolog.Logger) *NSEScraper {
	return &NSEScraper{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.With().Str("component", "universe.nse").Logger(),
	}
}

// FetchIndex scrapes the constituents of one index, e.g. "NIFTY50".
// Symbols come back with the ".NSE" suffix the data vendor expects.
func (s *NSEScraper) FetchIndex(ctx context.Context, index string) ([]string, error) {
	url := fmt.Sprintf("%s/indices/%s/constituents", s.baseURL, strings.ToUpper(index))

	resp, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("universe: fetch %s: %w", index, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("universe: fetch %s: unexpected status %d", index, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("universe: fetch %s: %w", index, err)
	}

	symbols := ParseConstituents(string(body))
	if len(symbols) == 0 {
		return nil, fmt.Errorf("universe: fetch %s: no symbols found", index)
	}

	s.log.Info().
		Str("index", index).
		Int("symbols", len(symbols)).
		Msg("index constituents scraped")
	return symbols, nil
}

// ParseConstituents pulls ticker symbols out of a constituents HTML page.
// 첫 번째 셀이 티커인 테이블 행만 수집한다.
func ParseConstituents(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var symbols []string
	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		ticker := strings.TrimSpace(cells.Eq(0).Text())
		if !symbolRe.MatchString(ticker) {
			return
		}

		symbol := ticker + ".NSE"
		if seen[symbol] {
			return
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	})
	return symbols
}
