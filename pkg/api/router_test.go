package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/artpro/wealthtrack/pkg/auth"
	"github.com/artpro/wealthtrack/pkg/config"
	"github.com/artpro/wealthtrack/pkg/database"
	"github.com/artpro/wealthtrack/pkg/ingest"
	"github.com/artpro/wealthtrack/pkg/marketdata"
	"github.com/artpro/wealthtrack/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarket struct {
	searchErr error
}

func (f *fakeMarket) SearchSymbols(_ context.Context, query string) ([]marketdata.Symbol, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	exchange := "NASDAQ"
	return []marketdata.Symbol{{Symbol: query, Name: "Apple Inc", Exchange: &exchange, Type: models.AssetStock}}, nil
}

func (f *fakeMarket) GetQuote(context.Context, string) (*marketdata.Quote, error) {
	return &marketdata.Quote{Symbol: "AAPL", Price: 100}, nil
}

func (f *fakeMarket) GetHistoricalPrices(context.Context, string, marketdata.HistoryOptions) ([]marketdata.HistoricalPrice, error) {
	return []marketdata.HistoricalPrice{
		{Datetime: "2024-01-02", Close: 100},
		{Datetime: "2024-01-03", Close: 120},
	}, nil
}

func (f *fakeMarket) GetExchangeRate(context.Context, string, string, string) (float64, error) {
	return 1, nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(context.Context, string, []byte) (string, error) {
	return "AAPL buy 10 @ 150", nil
}

type stubLLM struct{}

func (stubLLM) Generate(context.Context, string) (string, error) {
	return `{"transactions":[{"assetSymbol":"AAPL","assetName":"Apple Inc","assetType":"stock","type":"buy","quantity":10,"price":150,"date":"2024-01-15","currency":"USD","exchange":"NASDAQ"}]}`, nil
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	market *fakeMarket
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.InitDB(":memory:", "", zerolog.Nop(), false)
	require.NoError(t, err)

	cfg := &config.Config{
		AppEnv:       "test",
		JWTSecret:    "test-secret",
		JWTExpiresIn: time.Hour,
	}
	market := &fakeMarket{}
	svc := Services{
		Market: market,
		Parser: ingest.NewParser(stubExtractor{}, stubLLM{}, 0, zerolog.Nop()),
	}
	return &testServer{t: t, router: SetupRouter(db, cfg, svc, zerolog.Nop()), market: market}
}

func (s *testServer) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(path, filename string, content []byte, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(s.t, err)
		_, err = fw.Write(content)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup registers and logs in, returning a token
func (s *testServer) signup(email string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/register", gin.H{"email": email, "password": "pw123456", "confirmPassword": "pw123456"}, "")
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/login", gin.H{"email": email, "password": "pw123456"}, "")
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func (s *testServer) createPortfolio(token, name string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/portfolio", gin.H{"name": name}, token)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Portfolio models.Portfolio `json:"portfolio"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Portfolio.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/register", gin.H{"email": "a@b.co", "password": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"All fields are required."}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/register", gin.H{"email": "not-an-email", "password": "x", "confirmPassword": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid email address."}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/register", gin.H{"email": "a@b.co", "password": "x", "confirmPassword": "y"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Passwords do not match."}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/register", gin.H{"email": "a@b.co", "password": "x", "confirmPassword": "x"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.User.ID)
	assert.Equal(t, "a@b.co", resp.User.Email)

	// existing email wins over a password mismatch
	w = s.do(http.MethodPost, "/api/register", gin.H{"email": "a@b.co", "password": "x", "confirmPassword": "z"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.signup("jane@example.com")

	w := s.do(http.MethodPost, "/api/login", gin.H{"email": "jane@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/login", gin.H{"email": "jane@example.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials."}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/login", gin.H{"email": "nobody@example.com", "password": "pw123456"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/login", gin.H{"email": "jane@example.com", "password": "pw123456"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	cookie := w.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, "token=")
	assert.Contains(t, cookie, "HttpOnly")
	assert.Contains(t, cookie, "SameSite=Lax")
	assert.Contains(t, cookie, "Path=/")

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	claims, err := auth.ValidateToken(resp.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", claims.Email)
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("jane@example.com")

	w := s.do(http.MethodGet, "/api/user/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/user/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var me map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "jane@example.com", me["email"])
	assert.Equal(t, "USD", me["preferredCurrency"])
	assert.NotContains(t, me, "password")
	assert.Contains(t, me, "createdAt")

	w = s.do(http.MethodPatch, "/api/user/currency", gin.H{"preferredCurrency": "XYZ1"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid currency"}`, w.Body.String())

	w = s.do(http.MethodPatch, "/api/user/currency", gin.H{"preferredCurrency": 42}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, "/api/user/currency", gin.H{"preferredCurrency": "btc"}, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"preferredCurrency":"BTC"}`, w.Body.String())

	w = s.do(http.MethodPatch, "/api/user/currency", gin.H{"preferredCurrency": "eur"}, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"preferredCurrency":"EUR"}`, w.Body.String())
}

func TestPortfolioAndTransactions(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("jane@example.com")
	other := s.signup("joe@example.com")

	w := s.do(http.MethodPost, "/api/portfolio", gin.H{"description": "no name"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Name is required"}`, w.Body.String())

	id := s.createPortfolio(token, "Main")

	w = s.do(http.MethodGet, "/api/portfolio", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Main"`)

	w = s.do(http.MethodGet, "/api/portfolio", nil, other)
	assert.JSONEq(t, `{"portfolios":[]}`, w.Body.String())

	valid := gin.H{"transactions": []gin.H{{
		"type": "buy", "symbol": "AAPL", "exchange": "NASDAQ", "instrument_type": "stock",
		"amount": 10, "price": 150.5, "date": "2024-01-15T10:30:00.000Z", "currency": "USD", "assetName": "Apple Inc",
	}}}

	w = s.do(http.MethodPost, "/api/portfolio/"+id+"/transactions", valid, other)
	assert.Equal(t, http.StatusNotFound, w.Code)

	invalid := gin.H{"transactions": []gin.H{{"type": "gift", "symbol": "AAPL"}}}
	w = s.do(http.MethodPost, "/api/portfolio/"+id+"/transactions", invalid, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"Invalid payload"`)
	assert.Contains(t, w.Body.String(), `fieldErrors`)

	badDate := gin.H{"transactions": []gin.H{{
		"type": "buy", "symbol": "AAPL", "exchange": "NASDAQ", "instrument_type": "stock",
		"amount": 1, "price": 1, "date": "yesterday", "currency": "USD", "assetName": "Apple Inc",
	}}}
	w = s.do(http.MethodPost, "/api/portfolio/"+id+"/transactions", badDate, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/portfolio/"+id+"/transactions", valid, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.Transactions, 1)
	assert.Equal(t, "AAPL", created.Transactions[0].AssetSymbol)
	assert.Equal(t, models.AssetStock, created.Transactions[0].AssetType)
	assert.Equal(t, 10.0, created.Transactions[0].Quantity)

	w = s.do(http.MethodGet, "/api/portfolio/"+id+"/transactions", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"assetSymbol":"AAPL"`)

	w = s.do(http.MethodGet, "/api/dashboard/assets", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var dash map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.Len(t, dash["assets"], 1)
	assert.Len(t, dash["performance"], 2)
	assert.NotNil(t, dash["twr"])

	w = s.do(http.MethodDelete, "/api/portfolio/"+id, nil, other)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/portfolio/"+id, nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/portfolio/"+id+"/transactions", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboard_Empty(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("jane@example.com")

	w := s.do(http.MethodGet, "/api/dashboard/assets", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"assets":[],"portfolios":[],"transactions":[],"performance":[],"twr":null,"cagr":null}`, w.Body.String())
}

func TestAssetSearch(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("jane@example.com")

	w := s.do(http.MethodGet, "/api/assets/search?symbol=A", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/assets/search?symbol=AAPL", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"exchange":"NASDAQ"`)

	s.market.searchErr = errors.New("rate limited")
	w = s.do(http.MethodGet, "/api/assets/search?symbol=AAPL", nil, token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch assets"}`, w.Body.String())
}

func TestParseBrokerFile(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("jane@example.com")
	id := s.createPortfolio(token, "Main")

	w := s.upload("/api/portfolio/"+id+"/parse-broker-file", "", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"NO_FILE_UPLOADED"`)
	assert.Contains(t, w.Body.String(), `"type":"validation_error"`)

	w = s.upload("/api/portfolio/"+id+"/parse-broker-file", "statement.docx", []byte("x"), token)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = s.upload("/api/portfolio/"+id+"/parse-broker-file", "statement.pdf", []byte("%PDF-1.4"), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"assetSymbol":"AAPL"`)

	w = s.upload("/api/portfolio/unknown/parse-broker-file", "statement.pdf", []byte("%PDF-1.4"), token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExchangeImport(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("jane@example.com")
	id := s.createPortfolio(token, "Main")

	w := s.do(http.MethodGet, "/api/exchanges", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"value":"binance"`)

	csv := []byte("Date(UTC),Type,Asset,Amount,Fee\n2024-01-02 10:00:00,Buy,BTC,0.5,0.001\n")
	w = s.upload("/api/portfolio/"+id+"/import/binance", "export.csv", csv, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"asset":"BTC"`)

	w = s.upload("/api/portfolio/"+id+"/import/kraken", "export.csv", csv, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"transactions":[]}`, w.Body.String())

	w = s.upload("/api/portfolio/"+id+"/import/binance", "export.pdf", csv, token)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("jane@example.com")

	w := s.do(http.MethodPost, "/api/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
}
