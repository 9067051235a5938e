package grading

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// highlightClasses cycle per criterion so adjacent spans stay distinguishable.
var highlightClasses = []string{"evidence-a", "evidence-b", "evidence-c", "evidence-d"}

var highlightPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("mark")
	p.AllowAttrs("class").OnElements("mark")
	return p
}()

// Highlight renders the answer text as sanitised HTML with verified evidence
// spans wrapped in <mark> tags. Unverified evidence is never highlighted;
// fabricated spans must not masquerade as answer-grounded ones.
func Highlight(answerText string, evidence []Evidence) string {
	escaped := html.EscapeString(answerText)

	classByCriterion := map[string]string{}
	next := 0

	for _, ev := range evidence {
		if ev.Verification == Unverified || ev.Matched == "" {
			continue
		}

		class, ok := classByCriterion[ev.Criterion]
		if !ok {
			class = highlightClasses[next%len(highlightClasses)]
			classByCriterion[ev.Criterion] = class
			next++
		}

		target := html.EscapeString(ev.Matched)
		marked := fmt.Sprintf("<mark class=%q>%s</mark>", class, target)
		escaped = strings.ReplaceAll(escaped, target, marked)
	}

	rendered := strings.ReplaceAll(escaped, "\n", "<br>")

	return highlightPolicy.Sanitize(rendered)
}
