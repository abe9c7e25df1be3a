package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// currencyWords maps spoken currency words to ISO codes.
var currencyWords = map[string]string{
	"usd":     "USD",
	"dollar":  "USD",
	"dollars": "USD",
	"dolar":   "USD",
	"dolares": "USD",
	"eur":     "EUR",
	"euro":    "EUR",
	"euros":   "EUR",
	"brl":     "BRL",
	"real":    "BRL",
	"reais":   "BRL",
	"reales":  "BRL",
	"ars":     "ARS",
	"peso":    "ARS",
	"pesos":   "ARS",
}

var (
	numberThenWord *regexp.Regexp
	wordThenNumber *regexp.Regexp
	currencyToken  *regexp.Regexp
)

func init() {
	words := make([]string, 0, len(currencyWords))
	for w := range currencyWords {
		words = append(words, w)
	}
	alternation := strings.Join(words, "|")
	numberThenWord = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(` + alternation + `)\b`)
	wordThenNumber = regexp.MustCompile(`(?i)\b(` + alternation + `)\s*(\d+(?:[.,]\d+)?)`)
	currencyToken = regexp.MustCompile(`(?i)\b(` + alternation + `)\b`)
}

// CurrencyHit is an amount tagged with the currency word found next to it.
type CurrencyHit struct {
	Amount   decimal.Decimal
	Currency string
}

// ExtractCurrency looks for an amount qualified by a currency word, in either
// order ("50 usd", "usd 50"). It returns nil when no foreign currency is
// mentioned or when the mentioned currency is already the home currency.
func ExtractCurrency(text, homeCurrency string) *CurrencyHit {
	var amountStr, word string
	if m := numberThenWord.FindStringSubmatch(text); m != nil {
		amountStr, word = m[1], m[2]
	} else if m := wordThenNumber.FindStringSubmatch(text); m != nil {
		word, amountStr = m[1], m[2]
	} else {
		return nil
	}

	code := currencyWords[strings.ToLower(word)]
	if code == "" || code == homeCurrency {
		return nil
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(amountStr, ",", "."))
	if err != nil {
		return nil
	}
	return &CurrencyHit{Amount: amount, Currency: code}
}

// StripCurrencyWords removes currency words from a description so "50 usd
// cena" stores as "cena".
func StripCurrencyWords(description string) string {
	clean := currencyToken.ReplaceAllString(description, "")
	return strings.TrimSpace(collapseSpaces.ReplaceAllString(clean, " "))
}
