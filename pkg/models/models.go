package models

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultCurrency is assigned to new users
const DefaultCurrency = "USD"

// AssetType classifies the instrument a transaction is about
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetCrypto AssetType = "crypto"
	AssetCash   AssetType = "cash"
	AssetOther  AssetType = "other"
)

// Valid reports whether t is a known asset type
func (t AssetType) Valid() bool {
	switch t {
	case AssetStock, AssetCrypto, AssetCash, AssetOther:
		return true
	}
	return false
}

// TransactionType is the direction of a transaction
type TransactionType string

const (
	TxBuy      TransactionType = "buy"
	TxSell     TransactionType = "sell"
	TxDeposit  TransactionType = "deposit"
	TxWithdraw TransactionType = "withdraw"
	// TxWithdrawal is accepted as a cash-flow alias of withdraw
	TxWithdrawal TransactionType = "withdrawal"
)

// Valid reports whether t can be stored
func (t TransactionType) Valid() bool {
	switch t {
	case TxBuy, TxSell, TxDeposit, TxWithdraw:
		return true
	}
	return false
}

// IsInflow reports whether t increases the held quantity
func (t TransactionType) IsInflow() bool {
	return t == TxBuy || t == TxDeposit
}

// IsOutflow reports whether t decreases the held quantity
func (t TransactionType) IsOutflow() bool {
	return t == TxSell || t == TxWithdraw || t == TxWithdrawal
}

// User is an account owning portfolios
type User struct {
	ID                string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email             string      `gorm:"uniqueIndex;not null" json:"email"`
	Password          string      `gorm:"not null" json:"-"` // salt:key, never exposed
	PreferredCurrency string      `gorm:"not null;default:USD" json:"preferredCurrency"`
	CreatedAt         time.Time   `json:"createdAt"`
	Portfolios        []Portfolio `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Portfolio groups transactions of one user
type Portfolio struct {
	ID           string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string        `gorm:"not null" json:"name"`
	Description  *string       `json:"description,omitempty"`
	UserID       string        `gorm:"not null;index;type:varchar(36)" json:"userId"`
	CreatedAt    time.Time     `json:"createdAt"`
	Transactions []Transaction `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Transaction is a single buy/sell/deposit/withdraw record
type Transaction struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PortfolioID string          `gorm:"not null;index;type:varchar(36)" json:"portfolioId"`
	AssetSymbol string          `gorm:"not null;index" json:"assetSymbol"`
	AssetName   string          `gorm:"not null" json:"assetName"`
	AssetType   AssetType       `gorm:"not null" json:"assetType"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Quantity    float64         `gorm:"not null" json:"quantity"`
	Price       float64         `gorm:"not null" json:"price"`
	Date        time.Time       `gorm:"not null" json:"date"`
	Notes       *string         `json:"notes,omitempty"`
	Currency    string          `gorm:"not null" json:"currency"` // USD, EUR, BTC...
	Exchange    string          `gorm:"not null" json:"exchange"` // NASDAQ, NYSE, BINANCE...
}

// BeforeCreate hook for User to set id and defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.PreferredCurrency == "" {
		u.PreferredCurrency = DefaultCurrency
	}
	return nil
}

// BeforeCreate hook for Portfolio to set id
func (p *Portfolio) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate hook for Transaction to set id and default date
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Date.IsZero() {
		t.Date = time.Now()
	}
	return nil
}

// cryptoCurrencies are the crypto codes the FX rate source quotes
var cryptoCurrencies = map[string]struct{}{
	"BTC": {}, "ETH": {}, "USDT": {}, "USDC": {}, "BNB": {}, "SOL": {},
	"XRP": {}, "ADA": {}, "DOGE": {}, "DOT": {}, "LTC": {}, "TRX": {},
	"AVAX": {}, "LINK": {}, "MATIC": {}, "XLM": {}, "BCH": {}, "ATOM": {},
	"XMR": {}, "DAI": {}, "SHIB": {}, "UNI": {},
}

// IsCurrencyCode reports whether code is an ISO 4217 currency or a
// supported crypto currency
func IsCurrencyCode(code string) bool {
	if code == "" {
		return false
	}
	if _, ok := cryptoCurrencies[code]; ok {
		return true
	}
	return money.GetCurrency(code) != nil
}
