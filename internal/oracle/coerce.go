package oracle

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gastobot/gastobot/internal/models"
)

// validCurrencies is the closed set the model may answer with. Anything else
// coerces to the default.
var validCurrencies = map[string]bool{"ARS": true, "USD": true, "EUR": true, "BRL": true}

const defaultCurrency = "ARS"

// wire mirrors the JSON shape we ask the model for, with loose field types
// because models do not reliably honor schemas.
type wire struct {
	Type             string          `json:"type"`
	Amount           json.RawMessage `json:"amount"`
	Currency         string          `json:"currency"`
	Description      string          `json:"description"`
	Category         string          `json:"category"`
	SplitAmong       []any           `json:"splitAmong"`
	ExcludeFromSplit []any           `json:"excludeFromSplit"`
	IncludesSender   *bool           `json:"includesSender"`
	Direction        string          `json:"direction"`
	Counterparty     string          `json:"counterparty"`
	Command          string          `json:"command"`
	Confidence       json.RawMessage `json:"confidence"`
	Suggestion       string          `json:"suggestion"`
}

// ParseResult coerces a raw model answer into a Result. It never fails:
// output that cannot be parsed becomes a zero-confidence unknown so the
// caller falls through to the deterministic parser.
func ParseResult(raw string) *Result {
	cleaned := stripFences(raw)

	var w wire
	if err := json.Unmarshal([]byte(cleaned), &w); err != nil {
		return &Result{Type: TypeUnknown, Confidence: 0, Suggestion: "No pude interpretar el mensaje."}
	}

	switch ResultType(w.Type) {
	case TypeExpense:
		return &Result{
			Type:             TypeExpense,
			Amount:           coerceAmount(w.Amount),
			Currency:         coerceCurrency(w.Currency),
			Description:      strings.TrimSpace(w.Description),
			Category:         strings.TrimSpace(w.Category),
			SplitAmong:       coerceStrings(w.SplitAmong),
			ExcludeFromSplit: coerceStrings(w.ExcludeFromSplit),
			IncludesSender:   w.IncludesSender == nil || *w.IncludesSender,
			Confidence:       coerceConfidence(w.Confidence, 0.5),
		}
	case TypePayment:
		direction := "paid"
		if w.Direction == "received" {
			direction = "received"
		}
		return &Result{
			Type:         TypePayment,
			Amount:       coerceAmount(w.Amount),
			Currency:     coerceCurrency(w.Currency),
			Direction:    direction,
			Counterparty: strings.TrimSpace(w.Counterparty),
			Confidence:   coerceConfidence(w.Confidence, 0.5),
		}
	case TypeCommand:
		return &Result{
			Type:       TypeCommand,
			Command:    strings.ToLower(strings.TrimSpace(w.Command)),
			Confidence: coerceConfidence(w.Confidence, 1.0),
		}
	default:
		return &Result{
			Type:       TypeUnknown,
			Confidence: coerceConfidence(w.Confidence, 0.3),
			Suggestion: strings.TrimSpace(w.Suggestion),
		}
	}
}

// stripFences removes a markdown code fence the model often wraps JSON in.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// coerceAmount accepts a JSON number or a numeric string, else zero.
func coerceAmount(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 {
		return decimal.Zero
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return decimal.NewFromFloat(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
		if d, err := decimal.NewFromString(s); err == nil {
			return d
		}
	}
	return decimal.Zero
}

func coerceCurrency(s string) string {
	code := strings.ToUpper(strings.TrimSpace(s))
	if validCurrencies[code] {
		return code
	}
	return defaultCurrency
}

// coerceConfidence accepts a number or numeric string, clamped to [0, 1].
func coerceConfidence(raw json.RawMessage, fallback float64) float64 {
	if len(raw) == 0 {
		return fallback
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fallback
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fallback
		}
		f = parsed
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// receiptWire mirrors the JSON shape asked for in receipt extraction.
type receiptWire struct {
	Amount     json.RawMessage `json:"amount"`
	Currency   string          `json:"currency"`
	Recipient  string          `json:"recipient"`
	CBU        string          `json:"cbu"`
	Alias      string          `json:"alias"`
	Bank       string          `json:"bank"`
	Date       string          `json:"date"`
	Reference  string          `json:"reference"`
	Concept    string          `json:"concept"`
	Confidence json.RawMessage `json:"confidence"`
}

// ParseReceipt coerces a raw model answer into a Receipt. Returns nil when
// the answer is not JSON at all.
func ParseReceipt(raw string) *Receipt {
	var w receiptWire
	if err := json.Unmarshal([]byte(stripFences(raw)), &w); err != nil {
		return nil
	}
	return &Receipt{
		Amount:   coerceAmount(w.Amount),
		Currency: coerceCurrency(w.Currency),
		Recipient: models.Recipient{
			Name:  strings.TrimSpace(w.Recipient),
			CBU:   strings.TrimSpace(w.CBU),
			Alias: strings.TrimSpace(w.Alias),
			Bank:  strings.TrimSpace(w.Bank),
		},
		Date:       strings.TrimSpace(w.Date),
		Reference:  strings.TrimSpace(w.Reference),
		Concept:    strings.TrimSpace(w.Concept),
		Confidence: coerceConfidence(w.Confidence, 0.5),
	}
}

// coerceStrings keeps only the string members of a loose array.
func coerceStrings(vals []any) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
