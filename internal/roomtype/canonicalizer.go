// Package roomtype maps free-text room names, in any source language, onto
// locale-independent canonical codes ("STD-SV" etc.).
package roomtype

import (
	"sort"
	"strings"
	"unicode"
)

// Category orders tokens inside a canonical code: bed, then class, then
// view, then attribute.
type Category int

const (
	CatBed Category = iota
	CatClass
	CatView
	CatAttribute
)

type Token struct {
	Code     string
	Name     string
	Category Category
}

// Table is a word -> token alias map. Keys are lower-case single words.
type Table struct {
	Aliases map[string]Token
}

type Canonical struct {
	Code   string
	Name   string
	Tokens []Token
}

const (
	CodeOther   = "ROH" // room, other: non-empty input that matched nothing
	CodeUnknown = "UNK" // empty input
)

// Premium room classes must never resolve through a cheapest-room fallback.
var premiumCodes = map[string]bool{"SUI": true, "VIL": true, "PRS": true}

// Generic room classes may fall back to the cheapest available room.
var genericCodes = map[string]bool{"STD": true, "ECO": true}

func IsPremiumCode(code string) bool {
	for _, part := range strings.Split(code, "-") {
		if premiumCodes[part] {
			return true
		}
	}
	return false
}

func IsGenericCode(code string) bool {
	for _, part := range strings.Split(code, "-") {
		if genericCodes[part] {
			return true
		}
	}
	return false
}

// Canonicalize is pure: strip punctuation, lower-case, split, alias each
// word, de-duplicate, sort by category, join. Words with no alias are
// dropped; if nothing matches the whole input is ROH with the original text
// kept as the name.
func Canonicalize(tbl Table, raw string) Canonical {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Canonical{Code: CodeUnknown, Name: "Unknown"}
	}

	seen := make(map[string]bool, 4)
	var toks []Token
	for _, w := range tokenize(trimmed) {
		t, ok := tbl.Aliases[w]
		if !ok || seen[t.Code] {
			continue
		}
		seen[t.Code] = true
		toks = append(toks, t)
	}
	if len(toks) == 0 {
		return Canonical{Code: CodeOther, Name: trimmed}
	}

	// Stable sort keeps first-seen order inside a category.
	sort.SliceStable(toks, func(i, j int) bool { return toks[i].Category < toks[j].Category })

	codes := make([]string, len(toks))
	names := make([]string, len(toks))
	for i, t := range toks {
		codes[i] = t.Code
		names[i] = t.Name
	}
	return Canonical{
		Code:   strings.Join(codes, "-"),
		Name:   strings.Join(names, " "),
		Tokens: toks,
	}
}

// tokenize lower-cases and splits on anything that is not a letter or digit.
func tokenize(s string) []string {
	lower := strings.ToLower(s)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
