package exchanges

var coinbase = &Exchange{
	Value:           "coinbase",
	Label:           "Coinbase",
	LogoURL:         "https://images.ctfassets.net/q5ulk4bp65r7/3TBS4oVkD1ghowTqVQJlqj/2dfd4ea3b623a7c0d8deb2ff445dee9e/Consumer_Wordmark.svg",
	RequiredColumns: []string{"Timestamp", "Transaction Type", "Asset", "Quantity Transacted"},
	mapRows: func(rows [][]string) []Transaction {
		if len(rows) == 0 {
			return nil
		}
		recs := records(rows[0], rows[1:])
		out := make([]Transaction, 0, len(recs))
		for _, r := range recs {
			out = append(out, Transaction{
				Date:   r.get("Timestamp"),
				Type:   r.get("Transaction Type"),
				Asset:  r.get("Asset"),
				Amount: r.number("Quantity Transacted"),
				Price:  r.numberPtr("Spot Price at Transaction"),
				Fee:    r.numberPtr("Total Fee"),
			})
		}
		return out
	},
}
