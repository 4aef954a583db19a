package constants

import "strings"

// ContentType tags what a capture carries.
type ContentType string

const (
	ContentImage ContentType = "image"
	ContentText  ContentType = "text"
	ContentURL   ContentType = "url"
	ContentMixed ContentType = "mixed"
)

func (c ContentType) Valid() bool {
	switch c {
	case ContentImage, ContentText, ContentURL, ContentMixed:
		return true
	}
	return false
}

// Source tags the application or mechanism that produced a capture.
type Source string

const (
	SourceClipboard  Source = "clipboard"
	SourceScreenshot Source = "screenshot"
	SourceCamera     Source = "camera"
	SourceFileImport Source = "file_import"
	SourceShare      Source = "share"
	SourceManual     Source = "manual"
)

// CanonicalizeSource maps free-form input onto a known Source, defaulting to SourceManual.
func CanonicalizeSource(input string) (Source, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	synonyms := map[string]Source{
		"paste":  SourceClipboard,
		"copy":   SourceClipboard,
		"screen": SourceScreenshot,
		"photo":  SourceCamera,
		"file":   SourceFileImport,
		"import": SourceFileImport,
	}
	if s, ok := synonyms[normalized]; ok {
		return s, true
	}
	for _, s := range []Source{SourceClipboard, SourceScreenshot, SourceCamera, SourceFileImport, SourceShare, SourceManual} {
		if normalized == string(s) {
			return s, true
		}
	}
	return SourceManual, false
}
