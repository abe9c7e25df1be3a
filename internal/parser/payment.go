package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// PaymentDirection says whether the sender paid or received money.
type PaymentDirection string

const (
	DirectionPaid     PaymentDirection = "paid"
	DirectionReceived PaymentDirection = "received"
)

// Phrase prefixes that mark a settlement message, accent-optional.
var (
	paidPhrases     = []string{"le pagué", "le pague", "pagué", "pague"}
	receivedPhrases = []string{"me pagó", "me pago", "recibí", "recibi"}
)

// PaymentParse is the result of parsing a settlement message such as
// "le pagué 500 a @Ana".
type PaymentParse struct {
	Direction PaymentDirection
	Amount    decimal.Decimal
	// Counterparty is the single @mention named in the message.
	Counterparty string
}

// IsPayment reports whether the message starts with a settlement phrase.
func IsPayment(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, p := range append(paidPhrases, receivedPhrases...) {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// ParsePayment parses a settlement message. It requires exactly one @mention
// and a positive amount; anything else returns nil.
func ParsePayment(text string) *PaymentParse {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	direction := PaymentDirection("")
	for _, p := range paidPhrases {
		if strings.HasPrefix(lower, p) {
			direction = DirectionPaid
			break
		}
	}
	if direction == "" {
		for _, p := range receivedPhrases {
			if strings.HasPrefix(lower, p) {
				direction = DirectionReceived
				break
			}
		}
	}
	if direction == "" {
		return nil
	}

	mentions := mentionPattern.FindAllStringSubmatch(trimmed, -1)
	if len(mentions) != 1 {
		return nil
	}

	m := expensePattern.FindStringSubmatch(strings.TrimSpace(
		mentionPattern.ReplaceAllString(trimmed, "")))
	var amountStr string
	if m != nil {
		amountStr = m[1]
	} else {
		// Phrase first: "le pagué 500 a". Take the first number anywhere.
		am := amountAnywhere.FindStringSubmatch(trimmed)
		if am == nil {
			return nil
		}
		amountStr = am[1]
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(amountStr, ",", "."))
	if err != nil || !amount.IsPositive() {
		return nil
	}

	return &PaymentParse{Direction: direction, Amount: amount, Counterparty: mentions[0][1]}
}

var amountAnywhere = regexp.MustCompile(`(\d+(?:[.,]\d+)?)`)
