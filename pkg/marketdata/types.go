package marketdata

import (
	"context"
	"errors"

	"github.com/artpro/wealthtrack/pkg/models"
)

// ErrNotConfigured is returned when the market data API key is missing
var ErrNotConfigured = errors.New("Twelve Data API key not configured")

// Provider is the market data surface the rest of the app depends on
type Provider interface {
	SearchSymbols(ctx context.Context, query string) ([]Symbol, error)
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetHistoricalPrices(ctx context.Context, symbol string, opts HistoryOptions) ([]HistoricalPrice, error)
	GetExchangeRate(ctx context.Context, from, to, date string) (float64, error)
}

// Symbol is a search result
type Symbol struct {
	Symbol   string           `json:"symbol"`
	Name     string           `json:"name"`
	Exchange *string          `json:"exchange"`
	Type     models.AssetType `json:"type"`
	Currency string           `json:"currency,omitempty"`
	Country  string           `json:"country,omitempty"`
	MicCode  string           `json:"mic_code,omitempty"`
}

// Quote is the latest price of a symbol
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name,omitempty"`
	Exchange      string  `json:"exchange,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	Datetime      string  `json:"datetime,omitempty"`
	Price         float64 `json:"price"`
	Open          float64 `json:"open,omitempty"`
	High          float64 `json:"high,omitempty"`
	Low           float64 `json:"low,omitempty"`
	Close         float64 `json:"close,omitempty"`
	PreviousClose float64 `json:"previous_close,omitempty"`
	Change        float64 `json:"change,omitempty"`
	PercentChange float64 `json:"percent_change,omitempty"`
}

// HistoricalPrice is one OHLCV bar
type HistoricalPrice struct {
	Datetime string   `json:"datetime" msgpack:"d"`
	Open     float64  `json:"open" msgpack:"o"`
	High     float64  `json:"high" msgpack:"h"`
	Low      float64  `json:"low" msgpack:"l"`
	Close    float64  `json:"close" msgpack:"c"`
	Volume   *float64 `json:"volume,omitempty" msgpack:"v,omitempty"`
}

// Day returns the YYYY-MM-DD part of the bar's datetime
func (p HistoricalPrice) Day() string {
	if len(p.Datetime) >= 10 {
		return p.Datetime[:10]
	}
	return p.Datetime
}

// HistoryOptions narrows a time series request; zero values use defaults
type HistoryOptions struct {
	Exchange  string `json:"exchange,omitempty"`
	Interval  string `json:"interval,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// twelveDataSymbol is an entry of /symbol_search
type twelveDataSymbol struct {
	Symbol         string `json:"symbol"`
	InstrumentName string `json:"instrument_name"`
	Exchange       string `json:"exchange"`
	InstrumentType string `json:"instrument_type"`
	Currency       string `json:"currency"`
	Country        string `json:"country"`
	MicCode        string `json:"mic_code"`
}

// twelveDataQuote is the /quote response; numbers arrive as strings
type twelveDataQuote struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Exchange      string `json:"exchange"`
	Currency      string `json:"currency"`
	Datetime      string `json:"datetime"`
	Price         string `json:"price"`
	Open          string `json:"open"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Close         string `json:"close"`
	PreviousClose string `json:"previous_close"`
	Change        string `json:"change"`
	PercentChange string `json:"percent_change"`
}

// twelveDataSeriesValue is one bar of /time_series
type twelveDataSeriesValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}
