package exchanges

import (
	"strings"
	"testing"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsOf(t *testing.T, name, content string) [][]string {
	t.Helper()
	rows, err := ReadRows(name, strings.NewReader(content))
	require.NoError(t, err)
	return rows
}

func TestAllAndFind(t *testing.T) {
	values := make([]string, 0)
	for _, e := range All() {
		values = append(values, e.Value)
	}
	assert.Equal(t, []string{"binance", "coinbase", "xtb"}, values)
	assert.Equal(t, "Coinbase", Find("coinbase").Label)
	assert.Nil(t, Find("kraken"))
}

func TestMapTransactions_Unknown(t *testing.T) {
	out := MapTransactions("kraken", [][]string{{"a"}, {"b"}})
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestBinance(t *testing.T) {
	rows := rowsOf(t, "binance.csv", "\xef\xbb\xbfDate(UTC),Type,Asset,Amount,Fee\n"+
		"2024-01-02 10:00:00,Buy,BTC,0.5,0.001\n"+
		",,,,\n"+
		"2024-01-03 11:00:00,Sell,ETH,abc,\n")

	out := MapTransactions("binance", rows)
	require.Len(t, out, 2)

	assert.Equal(t, Transaction{Date: "2024-01-02 10:00:00", Type: "Buy", Asset: "BTC", Amount: 0.5, Fee: ptr(0.001)}, out[0])
	assert.Equal(t, 0.0, out[1].Amount)
	assert.Nil(t, out[1].Price)
	assert.Equal(t, 0.0, *out[1].Fee)
}

func TestCoinbase_LowercaseHeaders(t *testing.T) {
	rows := rowsOf(t, "coinbase.csv", "timestamp,transaction type,asset,quantity transacted,spot price at transaction,total fee\n"+
		"2024-02-01T09:00:00Z,Buy,BTC,0.25,42000.50,1.99\n")

	out := MapTransactions("coinbase", rows)
	require.Len(t, out, 1)
	assert.Equal(t, "2024-02-01T09:00:00Z", out[0].Date)
	assert.Equal(t, "Buy", out[0].Type)
	assert.Equal(t, 0.25, out[0].Amount)
	assert.Equal(t, 42000.5, *out[0].Price)
	assert.Equal(t, 1.99, *out[0].Fee)
}

func TestXTB_HeaderDiscovery(t *testing.T) {
	rows := rowsOf(t, "xtb.csv", "Name;Account;Currency\n"+
		"John;123;EUR\n"+
		";;\n"+
		"Position;Symbol;Type;Volume;Open time;Open price;Commission\n"+
		"1001;AAPL.US;BUY;10;2024-01-02 15:30:00;185.20;-1.5\n"+
		"1002;CASH;Withdrawal;100;2024-01-05 10:00:00;1;0\n"+
		"1003;EURUSD;swap;1;2024-01-06 10:00:00;1.1;0\n"+
		"Total;;;;;;-1.5\n")

	out := MapTransactions("xtb", rows)
	require.Len(t, out, 2)

	assert.Equal(t, "buy", out[0].Type)
	assert.Equal(t, "AAPL.US", out[0].Asset)
	assert.Equal(t, 10.0, out[0].Amount)
	assert.Equal(t, 185.2, *out[0].Price)
	assert.Equal(t, -1.5, *out[0].Fee)
	assert.Equal(t, "2024-01-02 15:30:00", out[0].Date)

	assert.Equal(t, "withdraw", out[1].Type)
}

func TestXTB_NoHeader(t *testing.T) {
	out := MapTransactions("xtb", [][]string{{"a", "b"}, {"1", "2"}})
	assert.Empty(t, out)
}

func TestReadRows_XLSX(t *testing.T) {
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Date(UTC)")
	f.SetCellValue("Sheet1", "B1", "Type")
	f.SetCellValue("Sheet1", "C1", "Asset")
	f.SetCellValue("Sheet1", "D1", "Amount")
	f.SetCellValue("Sheet1", "E1", "Fee")
	f.SetCellValue("Sheet1", "A2", "2024-01-02")
	f.SetCellValue("Sheet1", "B2", "Deposit")
	f.SetCellValue("Sheet1", "C2", "USDT")
	f.SetCellValue("Sheet1", "D2", "100")
	f.SetCellValue("Sheet1", "E2", "0")

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := ReadRows("export.XLSX", buf)
	require.NoError(t, err)

	out := MapTransactions("binance", rows)
	require.Len(t, out, 1)
	assert.Equal(t, "USDT", out[0].Asset)
	assert.Equal(t, 100.0, out[0].Amount)
}

func TestReadRows_Unsupported(t *testing.T) {
	_, err := ReadRows("statement.pdf", strings.NewReader("%PDF"))
	assert.ErrorIs(t, err, ErrUnsupportedSheet)
}

func TestLeadingFloat(t *testing.T) {
	assert.Equal(t, 12.5, leadingFloat("12.5 BTC"))
	assert.Equal(t, -3.0, leadingFloat(" -3"))
	assert.Equal(t, 1.0, leadingFloat("1,234"))
	assert.Equal(t, 0.5, leadingFloat(".5"))
	assert.Zero(t, leadingFloat("n/a"))
	assert.Zero(t, leadingFloat(""))
}

func ptr(f float64) *float64 { return &f }
