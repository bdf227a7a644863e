// Package skills detects known technical skills in free text.
package skills

import (
	"regexp"
)

// Vocabulary is the fixed list of skills recognised at ingestion time.
var Vocabulary = []string{
	"JavaScript", "TypeScript", "React", "Angular", "Vue", "Node.js",
	"Python", "Java", "C#", "C++", "PHP", "Ruby", "Swift", "Kotlin",
	"SQL", "MongoDB", "PostgreSQL", "MySQL", "Oracle", "NoSQL",
	"AWS", "Azure", "GCP", "Docker", "Kubernetes", "DevOps",
	"Git", "HTML", "CSS", "Sass", "REST API", "GraphQL",
	"Agile", "Scrum", "Kanban", "TDD", "CI/CD", "Machine Learning",
	"Data Analysis", "Data Science", "AI", "Blockchain", "IoT",
}

type matcher struct {
	skill string
	re    *regexp.Regexp
}

var matchers = compile(Vocabulary)

// compile builds one case-insensitive matcher per skill. A boundary is any
// rune that is not a letter or digit, so symbols such as "C++" still match.
func compile(vocab []string) []matcher {
	out := make([]matcher, 0, len(vocab))
	for _, s := range vocab {
		re := regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(s) + `(?:$|[^\p{L}\p{N}])`)
		out = append(out, matcher{skill: s, re: re})
	}
	return out
}

// Extract returns every vocabulary skill mentioned in text, once each, in
// vocabulary order.
func Extract(text string) []string {
	found := make([]string, 0)
	if text == "" {
		return found
	}
	for _, m := range matchers {
		if m.re.MatchString(text) {
			found = append(found, m.skill)
		}
	}
	return found
}
