package nlp

// Sentiment scores tokens in [-1,1]. A negation flips the next polar word.
func Sentiment(tokens []Token) float64 {
	var pos, neg float64
	negate := false
	for _, t := range tokens {
		switch {
		case negations[t.Lower]:
			negate = true
			continue
		case positiveWords[t.Lower]:
			if negate {
				neg++
			} else {
				pos++
			}
		case negativeWords[t.Lower]:
			if negate {
				pos++
			} else {
				neg++
			}
		}
		negate = false
	}
	if pos+neg == 0 {
		return 0
	}
	return (pos - neg) / (pos + neg + 1)
}
