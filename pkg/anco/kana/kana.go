// Package kana holds small string helpers for preparing engine input:
// script predicates, hiragana/katakana folding and width normalization.
package kana

import (
	"strings"

	"golang.org/x/text/width"
)

const (
	hiraganaFirst = 'ぁ' // U+3041
	hiraganaLast  = 'ゖ' // U+3096
	katakanaFirst = 'ァ' // U+30A1
	katakanaLast  = 'ヺ' // U+30FA
	prolonged     = 'ー' // U+30FC

	// Distance between a hiragana and its katakana counterpart.
	katakanaOffset = 'ァ' - 'ぁ'
)

// IsKana reports whether s is non-empty and consists only of full-width
// hiragana, katakana and the prolonged sound mark. Half-width katakana is not
// kana here; run Normalize first to accept it.
func IsKana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isKanaRune(r) {
			return false
		}
	}
	return true
}

func isKanaRune(r rune) bool {
	return (r >= hiraganaFirst && r <= hiraganaLast) ||
		(r >= katakanaFirst && r <= katakanaLast) ||
		r == prolonged
}

// ToKatakana maps every hiragana rune to katakana and leaves the rest as is.
func ToKatakana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= hiraganaFirst && r <= hiraganaLast {
			return r + katakanaOffset
		}
		return r
	}, s)
}

// ToHiragana maps every katakana rune that has a hiragana counterpart and
// leaves the rest as is. ヷ-ヺ have none and are kept.
func ToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= katakanaFirst && r <= hiraganaLast+katakanaOffset {
			return r - katakanaOffset
		}
		return r
	}, s)
}

// OnlyRomanAlphabet reports whether s is non-empty and ASCII letters only.
func OnlyRomanAlphabet(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !isRoman(r) }) < 0
}

// OnlyRomanAlphabetOrNumber reports whether s is non-empty and ASCII letters
// or digits only.
func OnlyRomanAlphabetOrNumber(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !isRoman(r) && !isDigit(r) }) < 0
}

// ContainsRomanAlphabet reports whether s has at least one ASCII letter.
func ContainsRomanAlphabet(s string) bool {
	return strings.IndexFunc(s, isRoman) >= 0
}

func isRoman(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Normalize folds character width: half-width katakana becomes full-width
// and full-width ASCII becomes ASCII. Half-width voiced marks are widened but
// not composed, so ｶﾞ becomes カ゛ rather than ガ.
func Normalize(s string) string {
	return width.Fold.String(s)
}
