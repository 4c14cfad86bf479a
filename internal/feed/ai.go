package feed

import (
	"regexp"
	"strings"
)

// aiKeywords are matched as substrings of the lower-cased caption.
var aiKeywords = []string{
	"artificial intelligence", "capcut ai", "capcutai", "ai filter", "ai effect",
	"ai generated", "ai video", "ai photo", "ai template", "aifilter", "aieffect",
	"ki filter", "ki effect", "ki video", "ki foto", "ki vorlage",
	"ia filter", "ia effect", "ia filtro", "ia efecto", "ia video",
}

// aiStandalone matches "ai", "ki" or "ia" as whole words only, so "hair" or
// "kiwi" do not count.
var aiStandalone = regexp.MustCompile(`\b(ai|ki|ia)\b`)

// DetectAI reports whether a caption describes AI-made content.
func DetectAI(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range aiKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return aiStandalone.MatchString(lower)
}
