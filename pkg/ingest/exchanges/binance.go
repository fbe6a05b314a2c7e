package exchanges

var binance = &Exchange{
	Value:           "binance",
	Label:           "Binance",
	LogoURL:         "https://upload.wikimedia.org/wikipedia/commons/5/57/Binance_Logo.png",
	RequiredColumns: []string{"Date(UTC)", "Type", "Asset", "Amount", "Fee"},
	mapRows: func(rows [][]string) []Transaction {
		if len(rows) == 0 {
			return nil
		}
		recs := records(rows[0], rows[1:])
		out := make([]Transaction, 0, len(recs))
		for _, r := range recs {
			out = append(out, Transaction{
				Date:   r.get("Date(UTC)"),
				Type:   r.get("Type"),
				Asset:  r.get("Asset"),
				Amount: r.number("Amount"),
				Fee:    r.numberPtr("Fee"),
			})
		}
		return out
	},
}
