package rubric

import (
	"fmt"
	"strings"
)

// Render produces the canonical table form of the rubric. The output is what
// revision prompts embed and what Parse reads back; Parse(Render(r)) == r for
// any rubric with valid items.
func Render(r Rubric) string {
	var b strings.Builder

	b.WriteString("| 채점 항목 | 배점 | 세부 기준 |\n")
	b.WriteString("|---|---|---|\n")
	for _, item := range r.Items {
		fmt.Fprintf(&b, "| %s | %d점 | %s |\n", item.Criterion, item.MaxPoints, item.Description)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "**배점 총합: %d점**\n", r.DeclaredTotal)

	return b.String()
}
