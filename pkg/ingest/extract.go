package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const transactionSchema = `{
  "transactions": [
    {
      "assetSymbol": "string",
      "assetName": "string",
      "assetType": "stock" | "crypto" | "cash" | "other",
      "type": "buy" | "sell" | "deposit" | "withdraw",
      "quantity": number,
      "price": number,
      "date": "ISO 8601 date string",
      "notes": "string (optional)",
      "currency": "string",
      "exchange": "string"
    }
  ]
}`

const promptTemplate = `You are a precise JSON extraction assistant. Extract transaction data from the broker file content and return ONLY a valid JSON object.

CRITICAL REQUIREMENTS:
- Return ONLY valid JSON - no explanations, no markdown, no extra text
- ONLY include transactions where assetType is 'stock' (ignore crypto, cash, etc.)
- Use the exact field names shown in the schema
- If no stock transactions found, return: {"transactions": []}
- All dates must be in ISO 8601 format (YYYY-MM-DD or YYYY-MM-DDTHH:mm:ss.sssZ)
- All numbers must be valid numbers (not strings)

REQUIRED JSON STRUCTURE:
%s

EXAMPLE OUTPUT:
{"transactions": [{"assetSymbol": "AAPL", "assetName": "Apple Inc", "assetType": "stock", "type": "buy", "quantity": 10, "price": 150.50, "date": "2024-01-15T10:30:00.000Z", "currency": "USD", "exchange": "NASDAQ"}]}

FILE CONTENT TO PARSE:
%s`

var fencedJSON = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// BuildPrompt renders the extraction prompt for content
func BuildPrompt(content string) string {
	return fmt.Sprintf(promptTemplate, transactionSchema, content)
}

// ParsedTransaction is a transaction extracted from a statement
type ParsedTransaction struct {
	AssetSymbol string  `json:"assetSymbol"`
	AssetName   string  `json:"assetName"`
	AssetType   string  `json:"assetType"`
	Type        string  `json:"type"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Date        string  `json:"date"`
	Notes       *string `json:"notes,omitempty"`
	Currency    string  `json:"currency"`
	Exchange    string  `json:"exchange"`
}

// ParseResult is the validated model output
type ParseResult struct {
	Transactions []ParsedTransaction `json:"transactions"`
}

// llmTransaction uses pointers so that presence, not zero value, is checked
type llmTransaction struct {
	AssetSymbol *string  `json:"assetSymbol" validate:"required"`
	AssetName   *string  `json:"assetName" validate:"required"`
	AssetType   *string  `json:"assetType" validate:"required,oneof=stock crypto cash other"`
	Type        *string  `json:"type" validate:"required,oneof=buy sell deposit withdraw"`
	Quantity    *float64 `json:"quantity" validate:"required"`
	Price       *float64 `json:"price" validate:"required"`
	Date        *string  `json:"date" validate:"required"`
	Notes       *string  `json:"notes" validate:"omitempty"`
	Currency    *string  `json:"currency" validate:"required"`
	Exchange    *string  `json:"exchange" validate:"required"`
}

type llmResponse struct {
	Transactions []llmTransaction `json:"transactions" validate:"dive"`
}

var validate = validator.New()

// ParseLLMOutput extracts and validates the JSON object in an LLM reply
func ParseLLMOutput(reply string) (*ParseResult, error) {
	raw := extractJSON(reply)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: reply is not a JSON object", ErrInvalidLLMOutput)
	}

	// a missing or non-array transactions field means none were found
	if list, ok := fields["transactions"]; !ok || !isJSONArray(list) {
		fields["transactions"] = json.RawMessage("[]")
	}

	var parsed llmResponse
	if err := json.Unmarshal(fields["transactions"], &parsed.Transactions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLLMOutput, err)
	}
	if err := validate.Struct(parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLLMOutput, err)
	}

	result := &ParseResult{Transactions: make([]ParsedTransaction, 0, len(parsed.Transactions))}
	for _, t := range parsed.Transactions {
		result.Transactions = append(result.Transactions, ParsedTransaction{
			AssetSymbol: *t.AssetSymbol,
			AssetName:   *t.AssetName,
			AssetType:   *t.AssetType,
			Type:        *t.Type,
			Quantity:    *t.Quantity,
			Price:       *t.Price,
			Date:        *t.Date,
			Notes:       t.Notes,
			Currency:    *t.Currency,
			Exchange:    *t.Exchange,
		})
	}
	return result, nil
}

// extractJSON returns the first complete JSON object in text, the content of
// a fenced json block, or the trimmed text itself
func extractJSON(text string) []byte {
	if start := strings.IndexByte(text, '{'); start >= 0 {
		var obj json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&obj); err == nil {
			return obj
		}
	}
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return []byte(m[1])
	}
	return []byte(strings.TrimSpace(text))
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
