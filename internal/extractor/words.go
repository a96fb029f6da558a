package extractor

import (
	"strings"
	"unicode"
)

var unitWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tensWords = map[string]int{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// parseNumberWords reads the first run of spelled-out English number words,
// e.g. "sixty eight" or "one hundred and five". Zero is only accepted as a
// digit, so "zero" is not a number word.
func parseNumberWords(text string) (int, bool) {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	total, found := 0, false
	for i, tok := range tokens {
		switch {
		case unitWords[tok] > 0:
			total += unitWords[tok]
			found = true
		case tensWords[tok] > 0:
			total += tensWords[tok]
			found = true
		case tok == "hundred" && found:
			total *= 100
		case tok == "and" && found && i+1 < len(tokens) && isNumberWord(tokens[i+1]):
		default:
			if found {
				return total, true
			}
		}
	}
	return total, found
}

func isNumberWord(tok string) bool {
	_, unit := unitWords[tok]
	_, tens := tensWords[tok]
	return unit || tens || tok == "hundred"
}
