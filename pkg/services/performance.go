package services

import (
	"math"
	"sort"
	"time"

	"github.com/artpro/wealthtrack/pkg/marketdata"
	"github.com/artpro/wealthtrack/pkg/models"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
)

const (
	dayLayout    = "2006-01-02"
	daysPerYear  = 365.25
	metricDigits = 2
)

// Money is an amount in a currency
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Asset is a net holding of one symbol across all of a user's portfolios
type Asset struct {
	AssetSymbol      string                       `json:"assetSymbol"`
	AssetName        string                       `json:"assetName"`
	AssetType        models.AssetType             `json:"assetType"`
	AssetCurrency    string                       `json:"assetCurrency"`
	Quantity         float64                      `json:"quantity"`
	HistoricalPrices []marketdata.HistoricalPrice `json:"historicalPrices"`
	Value            Money                        `json:"value"`
	TotalInvested    float64                      `json:"totalInvested"`
}

// HistoryEntry is a transaction as shown on the dashboard
type HistoryEntry struct {
	ID          string                 `json:"id"`
	AssetSymbol string                 `json:"assetSymbol"`
	AssetName   string                 `json:"assetName"`
	AssetType   models.AssetType       `json:"assetType"`
	Type        models.TransactionType `json:"type"`
	Quantity    float64                `json:"quantity"`
	Price       float64                `json:"price"`
	Date        string                 `json:"date"`
}

// PerformancePoint is the total portfolio value on one day
type PerformancePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// CashFlow is money moved into (negative) or out of (positive) the portfolio
type CashFlow struct {
	Date   string
	Amount float64
}

// BuildHoldings folds transactions into per-symbol holdings.
// Symbols keep the order of their first transaction; the first transaction
// also fixes name, type and currency. Holdings with quantity <= 0 are dropped.
func BuildHoldings(txs []models.Transaction) []Asset {
	index := make(map[string]int)
	holdings := make([]Asset, 0)
	invested := make([]decimal.Decimal, 0)

	for _, tx := range txs {
		i, ok := index[tx.AssetSymbol]
		if !ok {
			i = len(holdings)
			index[tx.AssetSymbol] = i
			holdings = append(holdings, Asset{
				AssetSymbol:      tx.AssetSymbol,
				AssetName:        tx.AssetName,
				AssetType:        tx.AssetType,
				AssetCurrency:    tx.Currency,
				HistoricalPrices: []marketdata.HistoricalPrice{},
				Value:            Money{Currency: tx.Currency},
			})
			invested = append(invested, decimal.Zero)
		}

		if tx.Type.IsInflow() {
			holdings[i].Quantity += tx.Quantity
			// Total invested = Σ price × quantity over buys and deposits
			invested[i] = invested[i].Add(decimal.NewFromFloat(tx.Price).Mul(decimal.NewFromFloat(tx.Quantity)))
		} else {
			holdings[i].Quantity -= tx.Quantity
		}
	}

	out := make([]Asset, 0, len(holdings))
	for i, h := range holdings {
		if h.Quantity <= 0 {
			continue
		}
		h.TotalInvested = invested[i].InexactFloat64()
		out = append(out, h)
	}
	return out
}

// TransactionHistory flattens transactions for display
func TransactionHistory(txs []models.Transaction) []HistoryEntry {
	history := make([]HistoryEntry, 0, len(txs))
	for _, tx := range txs {
		history = append(history, HistoryEntry{
			ID:          tx.ID,
			AssetSymbol: tx.AssetSymbol,
			AssetName:   tx.AssetName,
			AssetType:   tx.AssetType,
			Type:        tx.Type,
			Quantity:    tx.Quantity,
			Price:       tx.Price,
			Date:        day(tx.Date),
		})
	}
	return history
}

// OldestDates returns the first transaction day per symbol
func OldestDates(txs []models.Transaction) map[string]string {
	oldest := make(map[string]string)
	for _, tx := range txs {
		d := day(tx.Date)
		if cur, ok := oldest[tx.AssetSymbol]; !ok || d < cur {
			oldest[tx.AssetSymbol] = d
		}
	}
	return oldest
}

// PerformanceSeries sums quantity × close per day over the union of all
// assets' price days. An asset without a bar on a day contributes nothing.
func PerformanceSeries(assets []Asset) []PerformancePoint {
	closes := make([]map[string]float64, len(assets))
	days := make(map[string]struct{})

	for i, a := range assets {
		closes[i] = make(map[string]float64, len(a.HistoricalPrices))
		for _, p := range a.HistoricalPrices {
			d := p.Day()
			days[d] = struct{}{}
			// first bar of a day wins
			if _, ok := closes[i][d]; !ok {
				closes[i][d] = p.Close
			}
		}
	}

	sorted := make([]string, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)

	series := make([]PerformancePoint, 0, len(sorted))
	for _, d := range sorted {
		var value float64
		for i, a := range assets {
			if c, ok := closes[i][d]; ok {
				value += a.Quantity * c
			}
		}
		series = append(series, PerformancePoint{Date: d, Value: value})
	}
	return series
}

// CashFlows derives signed flows from the history, ascending by date.
// Buys and deposits are negative, sells and withdrawals positive.
func CashFlows(history []HistoryEntry) []CashFlow {
	flows := make([]CashFlow, 0, len(history))
	for _, tx := range history {
		amount := tx.Price * tx.Quantity
		switch {
		case tx.Type.IsInflow():
			flows = append(flows, CashFlow{Date: tx.Date, Amount: -amount})
		case tx.Type.IsOutflow():
			flows = append(flows, CashFlow{Date: tx.Date, Amount: amount})
		}
	}
	sort.SliceStable(flows, func(i, j int) bool { return flows[i].Date < flows[j].Date })
	return flows
}

// TimeWeightedReturn chains sub-period returns of the value series.
// Flows are consumed in date order: a step takes the run of pending flows
// with prevDate < date <= currDate, and the cursor never moves past a flow
// outside that window. r = (curr - netFlow - prev) / prev; steps starting at
// zero are skipped. TWR = Π(1 + r) - 1. Nil when the series has fewer than
// two points.
func TimeWeightedReturn(series []PerformancePoint, flows []CashFlow) *float64 {
	if len(series) < 2 {
		return nil
	}

	factors := make([]float64, 0, len(series)-1)
	prev := series[0]
	next := 0

	for _, curr := range series[1:] {
		var netFlow float64
		for next < len(flows) && flows[next].Date > prev.Date && flows[next].Date <= curr.Date {
			netFlow += flows[next].Amount
			next++
		}
		if prev.Value != 0 {
			factors = append(factors, 1+(curr.Value-netFlow-prev.Value)/prev.Value)
		}
		prev = curr
	}

	if len(factors) == 0 {
		return round(0)
	}
	return round(floats.Prod(factors) - 1)
}

// CAGR annualizes growth from the net invested principal to the last value.
// years = elapsed days / 365.25; principal = |Σ flows|, or the first value
// when flows net out to zero. Nil when the series has fewer than two points,
// the principal is not positive or no time has elapsed.
func CAGR(series []PerformancePoint, flows []CashFlow) *float64 {
	if len(series) < 2 {
		return nil
	}
	first, last := series[0], series[len(series)-1]

	start, err := time.Parse(dayLayout, first.Date)
	if err != nil {
		return nil
	}
	end, err := time.Parse(dayLayout, last.Date)
	if err != nil {
		return nil
	}
	years := end.Sub(start).Hours() / 24 / daysPerYear

	amounts := make([]float64, len(flows))
	for i, f := range flows {
		amounts[i] = f.Amount
	}
	principal := math.Abs(floats.Sum(amounts))
	if principal == 0 {
		principal = first.Value
	}

	if principal <= 0 || years <= 0 {
		return nil
	}
	return round(math.Pow(last.Value/principal, 1/years) - 1)
}

// round keeps two decimals; non-finite values are not computable
func round(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := decimal.NewFromFloat(v).Round(metricDigits).InexactFloat64()
	return &r
}

func day(t time.Time) string {
	return t.UTC().Format(dayLayout)
}
