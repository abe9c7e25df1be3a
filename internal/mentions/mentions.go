// Package mentions resolves free-form @mention tokens against a group roster.
// Matching is accent-insensitive and tolerant of small typos so "@juancito"
// finds the member named "Juan Citó".
package mentions

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/gastobot/gastobot/internal/models"
)

const (
	// matchThreshold is the worst score still considered a match.
	// 0 is an exact match, 1 shares nothing.
	matchThreshold = 0.35
	// minQueryLength guards against one-letter mentions matching everyone.
	minQueryLength = 2
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ErrEmptySplit means the resolved split set came out empty, so there is
// nobody to charge a share to.
var ErrEmptySplit = errors.New("nobody to split among")

// UnresolvedError reports mention tokens that matched nobody in the roster.
// Callers show the names back to the user instead of guessing.
type UnresolvedError struct {
	Names []string
}

func (e *UnresolvedError) Error() string {
	return "unresolved mentions: " + strings.Join(e.Names, ", ")
}

// Normalize lowercases, removes accents and drops everything that is not a
// letter or digit. It is applied to both roster names and mention tokens so
// the two sides compare on equal footing.
func Normalize(s string) string {
	folded, _, err := transform.String(stripMarks, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// score rates how well a mention token matches one roster key. Lower is
// better. Exact and substring matches rank ahead of pure edit distance.
func score(query, key string) float64 {
	if query == key {
		return 0
	}
	if strings.HasPrefix(key, query) {
		return 0.1
	}
	if strings.Contains(key, query) {
		return 0.2
	}
	d := levenshtein.ComputeDistance(query, key)
	longest := len(query)
	if len(key) > longest {
		longest = len(key)
	}
	if longest == 0 {
		return 1
	}
	return float64(d) / float64(longest)
}

// memberScore is the best score across a member's name and aliases.
func memberScore(query string, m *models.Participant) float64 {
	best := score(query, Normalize(m.Name))
	for _, alias := range m.Aliases {
		if s := score(query, Normalize(alias)); s < best {
			best = s
		}
	}
	return best
}

// Match finds the roster member best matching a single mention token.
// A score exactly at the threshold still matches, the usual inclusive
// convention for fuzzy matchers. Returns nil when every candidate scores
// worse.
func Match(token string, roster []*models.Participant) *models.Participant {
	query := Normalize(token)
	if len(query) < minQueryLength {
		return nil
	}

	var best *models.Participant
	bestScore := matchThreshold
	for _, m := range roster {
		if s := memberScore(query, m); s <= bestScore {
			// Ties keep the first roster entry.
			if best == nil || s < bestScore {
				best = m
				bestScore = s
			}
		}
	}
	return best
}

// Resolution is the outcome of resolving a list of mention tokens.
type Resolution struct {
	// IDs are the matched member ids, deduplicated, in first-seen order.
	IDs []string
	// Names are the matched members' display names, parallel to IDs.
	Names []string
	// Unresolved lists the tokens that matched nobody.
	Unresolved []string
}

// Resolve matches every token against the roster, deduplicating members that
// were mentioned more than once.
func Resolve(tokens []string, roster []*models.Participant) Resolution {
	var res Resolution
	seen := make(map[string]bool)
	for _, token := range tokens {
		m := Match(token, roster)
		if m == nil {
			res.Unresolved = append(res.Unresolved, token)
			continue
		}
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		res.IDs = append(res.IDs, m.ID)
		res.Names = append(res.Names, m.Name)
	}
	return res
}

// SplitFromMentions derives the participant ids an expense splits across.
//
// With no mentions the expense splits over the whole roster. Inclusion
// mentions name the members to split among. Exclusion mode inverts: the
// split is the roster minus the mentioned members. When includeSender is
// false the sender drops out of the split as well. Unresolved tokens and an
// empty result are errors, because silently charging the wrong people is
// worse than asking again.
func SplitFromMentions(tokens []string, exclude bool, senderID string, includeSender bool, roster []*models.Participant) ([]string, error) {
	if len(tokens) == 0 && !exclude {
		var split []string
		for _, m := range roster {
			split = append(split, m.ID)
		}
		split = maybeDropSender(split, senderID, includeSender)
		if len(split) == 0 {
			return nil, ErrEmptySplit
		}
		return split, nil
	}

	res := Resolve(tokens, roster)
	if len(res.Unresolved) > 0 {
		return nil, &UnresolvedError{Names: res.Unresolved}
	}

	var split []string
	if exclude {
		excluded := make(map[string]bool, len(res.IDs))
		for _, id := range res.IDs {
			excluded[id] = true
		}
		for _, m := range roster {
			if !excluded[m.ID] {
				split = append(split, m.ID)
			}
		}
	} else {
		split = res.IDs
	}

	split = maybeDropSender(split, senderID, includeSender)
	if len(split) == 0 {
		return nil, ErrEmptySplit
	}
	return split, nil
}

func maybeDropSender(ids []string, senderID string, includeSender bool) []string {
	if includeSender {
		return ids
	}
	out := ids[:0]
	for _, id := range ids {
		if id != senderID {
			out = append(out, id)
		}
	}
	return out
}

// SortedNames returns the roster's display names in stable order, for
// prompts that enumerate the group.
func SortedNames(roster []*models.Participant) []string {
	names := make([]string, len(roster))
	for i, m := range roster {
		names[i] = m.Name
	}
	sort.Strings(names)
	return names
}
