package detect

import (
	"regexp"
	"strings"
)

// Content types.
const (
	ContentCode          = "code"
	ContentDocumentation = "documentation"
	ContentText          = "text"
	ContentDesign        = "design"
	ContentGeneral       = "general"
)

var codePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)\b(def|func|function|class)\b|\w+\s+\w+\([^)]*\)\s*\{`),
	regexp.MustCompile(`\b(var|let|const|int|float|string|bool)\s+\w+\s*:?=`),
	regexp.MustCompile(`(?m)^\s*(import|from|require|using|#include|package)\b`),
	regexp.MustCompile(`\b(for|while)\s*\(?.*[{:]\s*$|\bfor\b.*\brange\b`),
	regexp.MustCompile(`\b(if|else|switch|case)\b.*[{:(]`),
}

type languageRule struct {
	name     string
	patterns []string
}

// Checked in order; the first language with a matching pattern wins.
var languageRules = []languageRule{
	{"go", []string{"func ", "package ", ":= "}},
	{"rust", []string{"fn ", "let mut ", "impl "}},
	{"cpp", []string{"#include", "std::", "cout"}},
	{"java", []string{"public class", "private ", "protected ", "System.out"}},
	{"python", []string{"def ", "elif ", "self.", "print("}},
	{"javascript", []string{"function", "const ", "let ", "=>"}},
	{"sql", []string{"SELECT ", "FROM ", "WHERE "}},
}

var designTerms = []string{"px", "rgb", "rgba", "stroke", "fill"}

// Classify guesses what kind of content text is and, for code, its language.
func Classify(text string) (contentType, language string) {
	matches := 0
	for _, p := range codePatterns {
		if p.MatchString(text) {
			matches++
		}
	}
	if matches >= 2 {
		for _, rule := range languageRules {
			for _, p := range rule.patterns {
				if strings.Contains(text, p) {
					return ContentCode, rule.name
				}
			}
		}
		return ContentCode, ""
	}

	if strings.Contains(text, "/**") || strings.Contains(text, `"""`) || strings.Contains(text, "# ") {
		return ContentDocumentation, ""
	}
	if len(strings.Fields(text)) > 20 {
		return ContentText, ""
	}
	lower := strings.ToLower(text)
	for _, term := range designTerms {
		if strings.Contains(lower, term) {
			return ContentDesign, ""
		}
	}
	return ContentGeneral, ""
}
