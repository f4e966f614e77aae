package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sartorproj/tsforecast/timeseries"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// DefaultYahooBaseURL is the public chart endpoint.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	Client  *http.Client
	BaseURL string
	Limiter *rate.Limiter
}

// NewYahooFetcher creates a fetcher that sends at most rps requests per
// second, optionally through an HTTP proxy. A proxy URL that does not parse
// is an error.
func NewYahooFetcher(proxyURL string, rps float64) (*YahooFetcher, error) {
	transport := &http.Transport{}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("yahoo proxy %q: %w", proxyURL, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("yahoo proxy %q: missing scheme or host", proxyURL)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	if rps <= 0 {
		rps = 1
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		BaseURL: DefaultYahooBaseURL,
		Limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// Name identifies the source in logs.
func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from the chart API. Quote arrays
// contain null for missing bars.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []decimal.NullDecimal `json:"open"`
					High   []decimal.NullDecimal `json:"high"`
					Low    []decimal.NullDecimal `json:"low"`
					Close  []decimal.NullDecimal `json:"close"`
					Volume []decimal.NullDecimal `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []decimal.NullDecimal `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(values []decimal.NullDecimal, i int) float64 {
	if i >= len(values) || !values[i].Valid {
		return math.NaN()
	}
	return values[i].Decimal.InexactFloat64()
}

// FetchDaily downloads daily bars for symbol between start and end.
func (f *YahooFetcher) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]timeseries.Bar, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("includeAdjustedClose", "true")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	var adj []decimal.NullDecimal
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	byDay := make(map[time.Time]timeseries.Bar, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c := at(quote.Close, i)
		if math.IsNaN(c) {
			continue // skip null bars
		}
		day := truncateDay(time.Unix(ts+result.Meta.GMTOffset, 0))
		byDay[day] = timeseries.Bar{
			Time:     day,
			Open:     at(quote.Open, i),
			High:     at(quote.High, i),
			Low:      at(quote.Low, i),
			Close:    c,
			AdjClose: at(adj, i),
			Volume:   at(quote.Volume, i),
		}
	}

	bars := make([]timeseries.Bar, 0, len(byDay))
	for _, b := range byDay {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	bars = inRange(bars, start, end)
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}
	return bars, nil
}
