package nlp

import (
	"strings"
	"unicode"
)

// Token is a word with rune offsets into the source text.
type Token struct {
	Text  string
	Lower string
	Start int
	End   int
	// SentenceStart is set on the first token of a sentence or line.
	SentenceStart bool
	// Boundary is set when punctuation or a line break precedes the token.
	Boundary bool
}

func (t Token) Capitalized() bool {
	for _, r := range t.Text {
		return unicode.IsUpper(r)
	}
	return false
}

func (t Token) IsWord() bool {
	for _, r := range t.Text {
		if !unicode.IsLetter(r) && r != '\'' && r != '-' && r != '&' && r != '.' {
			return false
		}
	}
	return t.Text != ""
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-' || r == '&' || r == '/' || r == '.'
}

// Tokenize splits text into tokens. Trailing periods are dropped from tokens
// except for single capital initials and known abbreviations.
func Tokenize(text string) []Token {
	runes := []rune(text)
	var out []Token
	sentenceStart, boundary := true, true
	for i := 0; i < len(runes); {
		r := runes[i]
		if !isTokenRune(r) || r == '.' || r == '-' || r == '/' {
			switch {
			case r == '.' || r == '!' || r == '?' || r == '\n':
				sentenceStart, boundary = true, true
			case r == ',' || r == ';' || r == ':' || r == '(' || r == ')' || r == '"':
				boundary = true
			}
			i++
			continue
		}
		j := i
		for j < len(runes) && isTokenRune(runes[j]) {
			j++
		}
		end := j
		for end > i && (runes[end-1] == '.' || runes[end-1] == '-' || runes[end-1] == '/') {
			end--
		}
		word := string(runes[i:end])
		if abbreviations[strings.ToLower(word)] && end < len(runes) && runes[end] == '.' {
			end++
			word += "."
		}
		out = append(out, Token{
			Text:          word,
			Lower:         strings.ToLower(word),
			Start:         i,
			End:           end,
			SentenceStart: sentenceStart,
			Boundary:      boundary,
		})
		sentenceStart, boundary = false, false
		if end < j {
			// trailing period ends the sentence
			for _, tr := range runes[end:j] {
				if tr == '.' {
					sentenceStart, boundary = true, true
				}
			}
		}
		i = j
	}
	return out
}

var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true, "inc": true, "co": true, "corp": true, "ltd": true, "st": true,
}
