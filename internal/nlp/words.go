package nlp

import "golang.org/x/text/language"

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// stopwords per supported language; English doubles as the phrase-splitting list.
var stopwords = map[language.Tag]map[string]bool{
	language.English: set(
		"a", "an", "the", "and", "or", "but", "if", "then", "so", "of", "at", "by", "for", "with", "about",
		"to", "from", "in", "on", "into", "over", "under", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did", "will", "would", "shall", "should", "can", "could", "may",
		"might", "must", "this", "that", "these", "those", "it", "its", "i", "me", "my", "we", "our", "you",
		"your", "he", "him", "his", "she", "her", "they", "them", "their", "what", "which", "who", "whom",
		"when", "where", "why", "how", "all", "any", "both", "each", "few", "more", "most", "other", "some",
		"such", "no", "nor", "not", "only", "own", "same", "than", "too", "very", "just", "also", "as", "up",
		"out", "please", "there", "here", "let", "lets", "let's", "via", "per", "am", "pm",
	),
	language.French: set(
		"le", "la", "les", "un", "une", "des", "et", "ou", "de", "du", "au", "aux", "avec", "pour", "sur",
		"dans", "est", "sont", "je", "tu", "il", "elle", "nous", "vous", "ils", "ce", "cette", "qui", "que",
		"pas", "ne", "mais", "en", "par",
	),
	language.German: set(
		"der", "die", "das", "ein", "eine", "und", "oder", "mit", "für", "auf", "im", "ist", "sind", "ich",
		"du", "er", "sie", "wir", "ihr", "nicht", "aber", "zu", "von", "den", "dem", "des", "auch", "wie",
	),
	language.Spanish: set(
		"el", "la", "los", "las", "un", "una", "y", "o", "de", "del", "con", "para", "por", "en", "es", "son",
		"yo", "tú", "él", "ella", "nosotros", "que", "no", "pero", "como", "su", "al", "lo",
	),
}

var supportedLanguages = []language.Tag{language.English, language.French, language.German, language.Spanish}

var positiveWords = set(
	"good", "great", "excellent", "amazing", "awesome", "happy", "glad", "love", "like", "nice", "wonderful",
	"fantastic", "success", "successful", "thanks", "thank", "appreciate", "pleased", "perfect", "win",
	"won", "best", "better", "excited", "congratulations", "approved", "easy", "helpful", "positive", "enjoy",
)

var negativeWords = set(
	"bad", "poor", "terrible", "awful", "horrible", "sad", "angry", "hate", "problem", "issue", "fail",
	"failed", "failure", "error", "broken", "late", "overdue", "urgent", "worst", "worse", "cancel",
	"cancelled", "canceled", "reject", "rejected", "wrong", "difficult", "negative", "complaint", "sorry",
)

var negations = set("not", "no", "never", "don't", "doesn't", "didn't", "isn't", "wasn't", "won't", "can't", "cannot")

var orgSuffixes = set(
	"corp", "corp.", "corporation", "inc", "inc.", "llc", "ltd", "ltd.", "co", "co.", "company", "group",
	"bank", "university", "institute", "foundation", "labs", "technologies", "systems", "partners", "agency",
	"gmbh", "sa", "plc", "holdings", "industries", "ventures",
)

var personTitles = set("mr", "mr.", "mrs", "mrs.", "ms", "ms.", "dr", "dr.", "prof", "prof.")

var firstNames = set(
	"john", "jane", "mary", "james", "robert", "michael", "william", "david", "richard", "joseph", "thomas",
	"sarah", "emily", "emma", "olivia", "sophia", "linda", "susan", "karen", "lisa", "anna", "maria",
	"peter", "paul", "mark", "alex", "chris", "daniel", "laura", "kate", "tom", "sam", "jack", "lucy",
)

var places = set(
	"london", "paris", "berlin", "madrid", "rome", "tokyo", "beijing", "sydney", "toronto", "chicago",
	"boston", "seattle", "austin", "denver", "new york", "san francisco", "los angeles", "amsterdam",
	"dublin", "lisbon", "vienna", "zurich", "munich", "barcelona", "singapore", "dubai", "mumbai",
	"usa", "uk", "france", "germany", "spain", "italy", "japan", "china", "canada", "mexico", "brazil",
	"india", "australia", "europe", "asia", "africa", "california", "texas", "florida",
)

// personCues precede a bare capitalized name.
var personCues = set("with", "by", "cc", "to", "and", "contact", "ask", "call", "email", "meet")

var locationCues = set("in", "near", "from", "to", "at")
