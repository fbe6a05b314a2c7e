package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/artpro/wealthtrack/pkg/cache"
	"github.com/artpro/wealthtrack/pkg/config"
	"github.com/artpro/wealthtrack/pkg/models"
	"github.com/rs/zerolog"
)

const (
	defaultInterval     = "1day"
	defaultLookbackDays = 365
	dateLayout          = "2006-01-02"
)

// TwelveData implements Provider on top of the Twelve Data REST API and the
// fawazahmed0 currency API
type TwelveData struct {
	apiKey    string
	baseURL   string
	fxBaseURL string
	client    *http.Client
	cache     *cache.Cache
	logger    zerolog.Logger
	now       func() time.Time
}

// NewTwelveData creates a new market data client
func NewTwelveData(cfg *config.Config, c *cache.Cache, logger zerolog.Logger) *TwelveData {
	return &TwelveData{
		apiKey:    cfg.TwelveDataAPIKey,
		baseURL:   strings.TrimRight(cfg.TwelveDataBaseURL, "/"),
		fxBaseURL: strings.TrimRight(cfg.CurrencyAPIBaseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:  c,
		logger: logger.With().Str("component", "marketdata").Logger(),
		now:    time.Now,
	}
}

// WithHTTPClient swaps the HTTP client, used to mock transports in tests
func (s *TwelveData) WithHTTPClient(client *http.Client) *TwelveData {
	s.client = client
	return s
}

// mapInstrumentType maps Twelve Data instrument_type to an asset type
func mapInstrumentType(t string) models.AssetType {
	switch strings.ToLower(t) {
	case "common stock", "preferred stock", "etf", "reit",
		"american depositary receipt", "depositary receipt", "global depositary receipt",
		"warrant", "right", "unit", "closed-end fund", "mutual fund", "bond fund",
		"trust", "structured product", "limited partnership":
		return models.AssetStock
	case "digital currency":
		return models.AssetCrypto
	case "physical currency":
		return models.AssetCash
	default:
		// bonds, ETNs, indices and commodities
		return models.AssetOther
	}
}

// SearchSymbols looks up symbols or ISINs; queries under two characters yield nothing
func (s *TwelveData) SearchSymbols(ctx context.Context, query string) ([]Symbol, error) {
	symbols := []Symbol{}
	if len(query) < 2 {
		return symbols, nil
	}
	if s.apiKey == "" {
		return nil, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("symbol", query)
	params.Set("apikey", s.apiKey)

	var result struct {
		Data []twelveDataSymbol `json:"data"`
	}
	if err := s.getJSON(ctx, s.baseURL+"/symbol_search?"+params.Encode(), &result); err != nil {
		return nil, fmt.Errorf("failed to search symbols: %w", err)
	}

	for _, item := range result.Data {
		sym := Symbol{
			Symbol:   item.Symbol,
			Name:     item.InstrumentName,
			Type:     mapInstrumentType(item.InstrumentType),
			Currency: item.Currency,
			Country:  item.Country,
			MicCode:  item.MicCode,
		}
		if item.Exchange != "" {
			exchange := item.Exchange
			sym.Exchange = &exchange
		}
		symbols = append(symbols, sym)
	}
	return symbols, nil
}

// GetQuote fetches the latest quote for symbol
func (s *TwelveData) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	if s.apiKey == "" {
		return nil, ErrNotConfigured
	}

	quote, err := cache.Remember(ctx, s.cache, "quote:"+symbol, 0, func(ctx context.Context) (Quote, error) {
		params := url.Values{}
		params.Set("symbol", symbol)
		params.Set("apikey", s.apiKey)

		var raw twelveDataQuote
		if err := s.getJSON(ctx, s.baseURL+"/quote?"+params.Encode(), &raw); err != nil {
			return Quote{}, fmt.Errorf("failed to fetch quote: %w", err)
		}

		price := parseFloat(raw.Price)
		if price == 0 {
			price = parseFloat(raw.Close)
		}
		if raw.Symbol == "" || price == 0 {
			return Quote{}, fmt.Errorf("invalid quote response for symbol: %s", symbol)
		}

		return Quote{
			Symbol:        raw.Symbol,
			Name:          raw.Name,
			Exchange:      raw.Exchange,
			Currency:      raw.Currency,
			Datetime:      raw.Datetime,
			Price:         price,
			Open:          parseFloat(raw.Open),
			High:          parseFloat(raw.High),
			Low:           parseFloat(raw.Low),
			Close:         parseFloat(raw.Close),
			PreviousClose: parseFloat(raw.PreviousClose),
			Change:        parseFloat(raw.Change),
			PercentChange: parseFloat(raw.PercentChange),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// GetHistoricalPrices fetches a time series, ascending by datetime
func (s *TwelveData) GetHistoricalPrices(ctx context.Context, symbol string, opts HistoryOptions) ([]HistoricalPrice, error) {
	if s.apiKey == "" {
		return nil, ErrNotConfigured
	}

	resolved := s.resolveOptions(opts)
	key, err := json.Marshal(resolved)
	if err != nil {
		return nil, err
	}

	return cache.Remember(ctx, s.cache, "historical:"+symbol+":"+string(key), 0, func(ctx context.Context) ([]HistoricalPrice, error) {
		params := url.Values{}
		params.Set("symbol", symbol)
		params.Set("apikey", s.apiKey)
		params.Set("interval", resolved.Interval)
		params.Set("start_date", resolved.StartDate)
		params.Set("end_date", resolved.EndDate)
		if resolved.Exchange != "" {
			params.Set("exchange", resolved.Exchange)
		}
		if resolved.Limit > 0 {
			params.Set("limit", strconv.Itoa(resolved.Limit))
		}

		var result struct {
			Values []twelveDataSeriesValue `json:"values"`
		}
		if err := s.getJSON(ctx, s.baseURL+"/time_series?"+params.Encode(), &result); err != nil {
			return nil, fmt.Errorf("failed to fetch historical prices: %w", err)
		}
		if result.Values == nil {
			return nil, fmt.Errorf("invalid historical prices response for symbol: %s", symbol)
		}

		prices := make([]HistoricalPrice, 0, len(result.Values))
		for _, v := range result.Values {
			p := HistoricalPrice{
				Datetime: v.Datetime,
				Open:     parseFloat(v.Open),
				High:     parseFloat(v.High),
				Low:      parseFloat(v.Low),
				Close:    parseFloat(v.Close),
			}
			if v.Volume != "" {
				vol := parseFloat(v.Volume)
				p.Volume = &vol
			}
			prices = append(prices, p)
		}

		// the API lists newest first
		sort.SliceStable(prices, func(i, j int) bool { return prices[i].Datetime < prices[j].Datetime })
		return prices, nil
	})
}

// resolveOptions fills defaults so the cache key names the actual window
func (s *TwelveData) resolveOptions(opts HistoryOptions) HistoryOptions {
	if opts.Interval == "" {
		opts.Interval = defaultInterval
	}
	if opts.EndDate == "" {
		opts.EndDate = s.now().UTC().Format(dateLayout)
	}
	if opts.StartDate == "" {
		end, err := time.Parse(dateLayout, opts.EndDate[:min(len(opts.EndDate), 10)])
		if err != nil {
			end = s.now().UTC()
		}
		opts.StartDate = end.AddDate(0, 0, -defaultLookbackDays).Format(dateLayout)
	}
	return opts
}

// GetExchangeRate returns how many units of to one unit of from buys on date ("" = latest)
func (s *TwelveData) GetExchangeRate(ctx context.Context, from, to, date string) (float64, error) {
	from = strings.ToLower(from)
	to = strings.ToLower(to)
	if from == to {
		return 1, nil
	}

	datePart := "latest"
	if date != "" {
		datePart = date[:min(len(date), 10)]
	}

	// "latest" moves daily, so it is keyed by today's date
	keyDate := datePart
	if datePart == "latest" {
		keyDate = "latest-" + s.now().UTC().Format(dateLayout)
	}

	return cache.Remember(ctx, s.cache, "fx:"+from+":"+to+":"+keyDate, 0, func(ctx context.Context) (float64, error) {
		endpoint := fmt.Sprintf("%s/@fawazahmed0/currency-api@%s/v1/currencies/%s.json", s.fxBaseURL, datePart, from)
		s.logger.Debug().Str("url", endpoint).Msg("Fetching exchange rate")

		var result map[string]json.RawMessage
		if err := s.getJSON(ctx, endpoint, &result); err != nil {
			return 0, fmt.Errorf("failed to fetch exchange rate: %w", err)
		}

		var rates map[string]float64
		if raw, ok := result[from]; ok {
			if err := json.Unmarshal(raw, &rates); err != nil {
				rates = nil
			}
		}
		rate := rates[to]
		if rate <= 0 {
			return 0, fmt.Errorf("invalid exchange rate response for %s/%s on %s", from, to, datePart)
		}
		return rate, nil
	})
}

func (s *TwelveData) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseFloat safely parses a string to float64, returning 0 on error
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
