package exchanges

import "strings"

var xtbTypes = map[string]string{
	"buy":        "buy",
	"sell":       "sell",
	"deposit":    "deposit",
	"withdrawal": "withdraw",
	"withdraw":   "withdraw",
}

var xtb = &Exchange{
	Value:           "xtb",
	Label:           "XTB",
	LogoURL:         "https://xas.scdn5.secure.raxcdn.com/build/twigImages/svg-icons/logo/logo_xtb.svg",
	RequiredColumns: []string{"Position", "Symbol", "Type", "Volume", "Open time", "Open price", "Commission"},
	mapRows: func(rows [][]string) []Transaction {
		// XTB reports start with account summary rows before the header
		headerIdx := -1
		for i, row := range rows {
			if hasCells(row, "Position", "Symbol", "Open time") {
				headerIdx = i
				break
			}
		}
		if headerIdx == -1 {
			return nil
		}

		recs := records(rows[headerIdx], rows[headerIdx+1:])
		out := make([]Transaction, 0, len(recs))
		for _, r := range recs {
			typ := strings.ToLower(r.get("Type"))
			if mapped, ok := xtbTypes[typ]; ok {
				typ = mapped
			}
			switch typ {
			case "buy", "sell", "deposit", "withdraw":
			default:
				continue
			}
			out = append(out, Transaction{
				Date:   r.get("Open time"),
				Type:   typ,
				Asset:  r.get("Symbol"),
				Amount: r.number("Volume"),
				Price:  r.numberPtr("Open price"),
				Fee:    r.numberPtr("Commission"),
			})
		}
		return out
	},
}

func hasCells(row []string, want ...string) bool {
	for _, w := range want {
		found := false
		for _, cell := range row {
			if strings.TrimSpace(cell) == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
