package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/artpro/wealthtrack/pkg/database"
	"github.com/artpro/wealthtrack/pkg/marketdata"
	"github.com/artpro/wealthtrack/pkg/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// maxValuationWorkers bounds concurrent price history fetches
	maxValuationWorkers = 4
	// maxRateWorkers bounds concurrent exchange rate lookups per asset
	maxRateWorkers = 8
)

// PortfolioLister lists a user's portfolios
type PortfolioLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Portfolio, error)
}

// TransactionLister lists the transactions of several portfolios
type TransactionLister interface {
	ListByPortfolios(ctx context.Context, portfolioIDs []string) ([]models.Transaction, error)
}

// UserFinder loads a user by id
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// PortfolioSummary is the id and name of a portfolio
type PortfolioSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Dashboard is the aggregated view of all of a user's portfolios
type Dashboard struct {
	Assets       []Asset            `json:"assets"`
	Portfolios   []PortfolioSummary `json:"portfolios"`
	Transactions []HistoryEntry     `json:"transactions"`
	Performance  []PerformancePoint `json:"performance"`
	TWR          *float64           `json:"twr"`
	CAGR         *float64           `json:"cagr"`
}

// DashboardService computes dashboards on demand
type DashboardService struct {
	portfolios   PortfolioLister
	transactions TransactionLister
	users        UserFinder
	market       marketdata.Provider
	logger       zerolog.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(portfolios PortfolioLister, transactions TransactionLister, users UserFinder, market marketdata.Provider, logger zerolog.Logger) *DashboardService {
	return &DashboardService{
		portfolios:   portfolios,
		transactions: transactions,
		users:        users,
		market:       market,
		logger:       logger.With().Str("component", "dashboard").Logger(),
	}
}

// Build aggregates holdings, valuation and performance for userID
func (s *DashboardService) Build(ctx context.Context, userID string) (*Dashboard, error) {
	dash := &Dashboard{
		Assets:       []Asset{},
		Portfolios:   []PortfolioSummary{},
		Transactions: []HistoryEntry{},
		Performance:  []PerformancePoint{},
	}

	portfolios, err := s.portfolios.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	if len(portfolios) == 0 {
		return dash, nil
	}

	ids := make([]string, 0, len(portfolios))
	for _, p := range portfolios {
		ids = append(ids, p.ID)
		dash.Portfolios = append(dash.Portfolios, PortfolioSummary{ID: p.ID, Name: p.Name})
	}

	txs, err := s.transactions.ListByPortfolios(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	preferred := ""
	user, err := s.users.FindByID(ctx, userID)
	switch {
	case err == nil:
		preferred = user.PreferredCurrency
	case errors.Is(err, database.ErrNotFound):
		s.logger.Warn().Str("user_id", userID).Msg("User not found, skipping currency conversion")
	default:
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	dash.Assets = BuildHoldings(txs)
	dash.Transactions = TransactionHistory(txs)
	oldest := OldestDates(txs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxValuationWorkers)
	for i := range dash.Assets {
		asset := &dash.Assets[i]
		g.Go(func() error {
			s.value(gctx, asset, oldest[asset.AssetSymbol], preferred)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dash.Performance = PerformanceSeries(dash.Assets)
	if len(dash.Performance) > 1 {
		flows := CashFlows(dash.Transactions)
		dash.TWR = TimeWeightedReturn(dash.Performance, flows)
		dash.CAGR = CAGR(dash.Performance, flows)
	}

	s.logger.Debug().
		Str("user_id", userID).
		Int("assets", len(dash.Assets)).
		Int("points", len(dash.Performance)).
		Msg("Dashboard built")

	return dash, nil
}

// value fills the price history and current value of asset.
// A failed history fetch leaves the asset with no prices and a zero value.
func (s *DashboardService) value(ctx context.Context, asset *Asset, from, preferred string) {
	prices, err := s.market.GetHistoricalPrices(ctx, asset.AssetSymbol, marketdata.HistoryOptions{StartDate: from})
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", asset.AssetSymbol).Msg("Failed to fetch price history")
		asset.HistoricalPrices = []marketdata.HistoricalPrice{}
		asset.Value = Money{Amount: 0, Currency: asset.AssetCurrency}
		return
	}

	if preferred != "" && !strings.EqualFold(asset.AssetCurrency, preferred) {
		prices = s.convert(ctx, prices, asset.AssetCurrency, preferred)
	}
	if prices == nil {
		prices = []marketdata.HistoricalPrice{}
	}
	asset.HistoricalPrices = prices

	currency := preferred
	if currency == "" {
		currency = asset.AssetCurrency
	}
	asset.Value = Money{Currency: currency}
	if len(prices) > 0 {
		// closes are already converted
		asset.Value.Amount = asset.Quantity * prices[len(prices)-1].Close
	}
}

// convert multiplies each bar by the rate of its own day; bars whose rate
// cannot be found are kept as they are
func (s *DashboardService) convert(ctx context.Context, prices []marketdata.HistoricalPrice, from, to string) []marketdata.HistoricalPrice {
	out := make([]marketdata.HistoricalPrice, len(prices))
	copy(out, prices)

	var g errgroup.Group
	g.SetLimit(maxRateWorkers)
	for i := range out {
		bar := &out[i]
		g.Go(func() error {
			rate, err := s.market.GetExchangeRate(ctx, from, to, bar.Day())
			if err != nil || rate <= 0 {
				s.logger.Debug().Err(err).Str("from", from).Str("to", to).Str("date", bar.Day()).Msg("Keeping unconverted price")
				return nil
			}
			bar.Open *= rate
			bar.High *= rate
			bar.Low *= rate
			bar.Close *= rate
			return nil
		})
	}
	_ = g.Wait()
	return out
}
