package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/artpro/wealthtrack/pkg/database"
	"github.com/artpro/wealthtrack/pkg/marketdata"
	"github.com/artpro/wealthtrack/pkg/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	portfolios []models.Portfolio
	txs        []models.Transaction
	user       *models.User
}

func (f *fakeStore) ListByUser(context.Context, string) ([]models.Portfolio, error) {
	return f.portfolios, nil
}

func (f *fakeStore) ListByPortfolios(context.Context, []string) ([]models.Transaction, error) {
	return f.txs, nil
}

func (f *fakeStore) FindByID(context.Context, string) (*models.User, error) {
	if f.user == nil {
		return nil, database.ErrNotFound
	}
	return f.user, nil
}

type fakeMarket struct {
	mu      sync.Mutex
	history map[string][]marketdata.HistoricalPrice
	rates   map[string]float64 // keyed by day
	starts  map[string]string

	rateDelay   time.Duration
	inFlight    int
	maxInFlight int
}

func (f *fakeMarket) SearchSymbols(context.Context, string) ([]marketdata.Symbol, error) {
	return nil, nil
}

func (f *fakeMarket) GetQuote(context.Context, string) (*marketdata.Quote, error) {
	return nil, errors.New("not used")
}

func (f *fakeMarket) GetHistoricalPrices(_ context.Context, symbol string, opts marketdata.HistoryOptions) ([]marketdata.HistoricalPrice, error) {
	f.mu.Lock()
	f.starts[symbol] = opts.StartDate
	f.mu.Unlock()
	prices, ok := f.history[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	return prices, nil
}

func (f *fakeMarket) GetExchangeRate(_ context.Context, _, _, date string) (float64, error) {
	f.mu.Lock()
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()
	time.Sleep(f.rateDelay)

	rate, ok := f.rates[date]
	if !ok {
		return 0, errors.New("no rate")
	}
	return rate, nil
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		history: map[string][]marketdata.HistoricalPrice{},
		rates:   map[string]float64{},
		starts:  map[string]string{},
	}
}

func TestDashboard_NoPortfolios(t *testing.T) {
	store := &fakeStore{}
	svc := NewDashboardService(store, store, store, newFakeMarket(), zerolog.Nop())

	dash, err := svc.Build(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, dash.Assets)
	assert.NotNil(t, dash.Assets)
	assert.NotNil(t, dash.Portfolios)
	assert.NotNil(t, dash.Transactions)
	assert.NotNil(t, dash.Performance)
	assert.Nil(t, dash.TWR)
	assert.Nil(t, dash.CAGR)
}

func TestDashboard_Build(t *testing.T) {
	eurBuy := tx("SAP", models.TxBuy, 2, 100, "2024-01-01")
	eurBuy.Currency = "EUR"

	store := &fakeStore{
		portfolios: []models.Portfolio{{ID: "p1", Name: "Main"}},
		txs: []models.Transaction{
			tx("AAPL", models.TxBuy, 1, 100, "2024-01-01"),
			eurBuy,
			tx("GONE", models.TxBuy, 1, 10, "2024-01-01"),
			tx("GONE", models.TxSell, 1, 12, "2024-01-02"),
			tx("FAIL", models.TxBuy, 3, 5, "2023-12-15"),
		},
		user: &models.User{ID: "u1", PreferredCurrency: "USD"},
	}

	market := newFakeMarket()
	market.history["AAPL"] = []marketdata.HistoricalPrice{
		{Datetime: "2024-01-01", Close: 100},
		{Datetime: "2024-01-02", Close: 110},
	}
	market.history["SAP"] = []marketdata.HistoricalPrice{
		{Datetime: "2024-01-01", Open: 10, Close: 50},
		{Datetime: "2024-01-02", Close: 60},
	}
	market.rates["2024-01-01"] = 2
	market.rates["2024-01-02"] = 0

	svc := NewDashboardService(store, store, store, market, zerolog.Nop())
	dash, err := svc.Build(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, []PortfolioSummary{{ID: "p1", Name: "Main"}}, dash.Portfolios)
	assert.Len(t, dash.Transactions, 5)
	require.Len(t, dash.Assets, 3)

	aapl := dash.Assets[0]
	assert.Equal(t, Money{Amount: 110, Currency: "USD"}, aapl.Value)

	sap := dash.Assets[1]
	assert.Equal(t, 100.0, sap.HistoricalPrices[0].Close)
	assert.Equal(t, 20.0, sap.HistoricalPrices[0].Open)
	// zero rate keeps the bar unconverted
	assert.Equal(t, 60.0, sap.HistoricalPrices[1].Close)
	assert.Equal(t, Money{Amount: 120, Currency: "USD"}, sap.Value)

	failed := dash.Assets[2]
	assert.Equal(t, "FAIL", failed.AssetSymbol)
	assert.Empty(t, failed.HistoricalPrices)
	assert.Equal(t, Money{Amount: 0, Currency: "USD"}, failed.Value)
	assert.Equal(t, "2023-12-15", market.starts["FAIL"])

	assert.Equal(t, []PerformancePoint{
		{Date: "2024-01-01", Value: 300},
		{Date: "2024-01-02", Value: 230},
	}, dash.Performance)
	// the FAIL buy predates the series, so no flow is consumed
	require.NotNil(t, dash.TWR)
	assert.Equal(t, -0.23, *dash.TWR)
	// 230 against 313 invested over one day
	require.NotNil(t, dash.CAGR)
	assert.Equal(t, -1.0, *dash.CAGR)
}

func TestDashboard_UnknownUserSkipsConversion(t *testing.T) {
	eurBuy := tx("SAP", models.TxBuy, 1, 100, "2024-01-01")
	eurBuy.Currency = "EUR"
	store := &fakeStore{
		portfolios: []models.Portfolio{{ID: "p1", Name: "Main"}},
		txs:        []models.Transaction{eurBuy},
	}
	market := newFakeMarket()
	market.history["SAP"] = []marketdata.HistoricalPrice{{Datetime: "2024-01-01", Close: 50}}
	market.rates["2024-01-01"] = 2

	svc := NewDashboardService(store, store, store, market, zerolog.Nop())
	dash, err := svc.Build(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, dash.Assets, 1)
	assert.Equal(t, Money{Amount: 50, Currency: "EUR"}, dash.Assets[0].Value)
	assert.Len(t, dash.Performance, 1)
	assert.Nil(t, dash.TWR)
	assert.Nil(t, dash.CAGR)
}

func TestDashboard_ConvertsBarsConcurrently(t *testing.T) {
	eurBuy := tx("SAP", models.TxBuy, 1, 100, "2024-01-01")
	eurBuy.Currency = "EUR"
	store := &fakeStore{
		portfolios: []models.Portfolio{{ID: "p1", Name: "Main"}},
		txs:        []models.Transaction{eurBuy},
		user:       &models.User{ID: "u1", PreferredCurrency: "USD"},
	}

	market := newFakeMarket()
	market.rateDelay = 20 * time.Millisecond
	for d := 1; d <= 20; d++ {
		day := fmt.Sprintf("2024-01-%02d", d)
		market.history["SAP"] = append(market.history["SAP"], marketdata.HistoricalPrice{Datetime: day, Close: 10})
		market.rates[day] = 1.5
	}

	svc := NewDashboardService(store, store, store, market, zerolog.Nop())
	dash, err := svc.Build(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, dash.Assets, 1)
	prices := dash.Assets[0].HistoricalPrices
	require.Len(t, prices, 20)
	for i, p := range prices {
		assert.Equal(t, fmt.Sprintf("2024-01-%02d", i+1), p.Datetime)
		assert.Equal(t, 15.0, p.Close)
	}
	assert.Greater(t, market.maxInFlight, 1)
	assert.LessOrEqual(t, market.maxInFlight, maxRateWorkers)
}
