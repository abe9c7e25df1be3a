// Package parser implements the deterministic, regex-based message parsers.
// It is the guaranteed-available fallback when the oracle is disabled, times
// out, or returns a low-confidence result.
package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// mentionPattern captures @name tokens.
var mentionPattern = regexp.MustCompile(`@([a-zA-Z0-9_]+)`)

// expensePattern matches "<number> <rest>" with comma or dot decimals.
var expensePattern = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s+(.+)$`)

// ExpenseParse is the result of parsing a group-mode expense message.
type ExpenseParse struct {
	Amount      decimal.Decimal
	Description string
	Category    string
	Mentions    []string
	// NeedsReview is set when the "<number> <rest>" shape was not found.
	NeedsReview bool
}

// ParseExpense extracts amount, description and explicit @mentions from a
// free-form expense message. Mentions are stripped before the amount match so
// "1000 taxi @Bob" parses as amount=1000, description="taxi".
func ParseExpense(text string) ExpenseParse {
	normalized := strings.TrimSpace(text)

	var mentions []string
	clean := mentionPattern.ReplaceAllStringFunc(normalized, func(m string) string {
		mentions = append(mentions, strings.TrimPrefix(m, "@"))
		return ""
	})
	clean = strings.TrimSpace(clean)

	m := expensePattern.FindStringSubmatch(clean)
	if m == nil {
		return ExpenseParse{Description: text, NeedsReview: true}
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
	if err != nil {
		return ExpenseParse{Description: text, NeedsReview: true}
	}

	description := strings.TrimSpace(m[2])
	return ExpenseParse{
		Amount:      amount,
		Description: description,
		Category:    Categorize(description),
		Mentions:    mentions,
	}
}

// collapseSpaces squeezes runs of whitespace left behind by stripping tokens.
var collapseSpaces = regexp.MustCompile(`\s+`)

// personalPattern matches "$<amount> <rest>" with an optional $ sign.
var personalPattern = regexp.MustCompile(`^\$?\s*([\d.,]+)\s+(.+)$`)

var (
	hashtagPattern     = regexp.MustCompile(`#(\S+)`)
	descriptionPattern = regexp.MustCompile(`(?i)d:(.+?)(#|$)`)
)

// PersonalParse is the result of parsing a personal-mode expense message of
// the form "$<amount> <title> #<category> d:<description>".
type PersonalParse struct {
	Amount      decimal.Decimal
	Title       string
	Category    string
	Description string
}

// ParsePersonal parses a personal-mode expense message. Amounts use the
// Argentine convention: dot is a thousands separator, comma is the decimal
// separator. Returns nil when the message does not fit the shape or the
// amount is not positive.
func ParsePersonal(text string) *PersonalParse {
	m := personalPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil
	}

	amountStr := strings.ReplaceAll(m[1], ".", "")
	amountStr = strings.ReplaceAll(amountStr, ",", ".")
	amount, err := decimal.NewFromString(amountStr)
	if err != nil || !amount.IsPositive() {
		return nil
	}

	rest := strings.TrimSpace(m[2])

	var category string
	if cm := hashtagPattern.FindStringSubmatch(rest); cm != nil {
		category = strings.ToLower(cm[1])
		rest = strings.TrimSpace(hashtagPattern.ReplaceAllString(rest, ""))
	}

	var description string
	if dm := descriptionPattern.FindStringSubmatch(rest); dm != nil {
		description = strings.TrimSpace(dm[1])
		rest = strings.TrimSpace(descriptionPattern.ReplaceAllString(rest, "$2"))
	}

	title := capitalizeFirst(strings.TrimSpace(collapseSpaces.ReplaceAllString(rest, " ")))
	if title == "" {
		return nil
	}

	return &PersonalParse{Amount: amount, Title: title, Category: category, Description: description}
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
