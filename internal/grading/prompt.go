package grading

import (
	"fmt"
	"strings"
)

// DefaultMaxEvidence caps the quoted spans requested per criterion.
const DefaultMaxEvidence = 3

// Prompt builds the grading prompt for one (rubric, answer) pair. The rubric
// is restated verbatim so the model cannot invent criteria, and the closing
// markers (총점/총평/근거 문장) are fixed so Extract can recover structure.
func Prompt(rubricText, studentName, studentID, answerText string, maxEvidence int) string {
	if maxEvidence <= 0 {
		maxEvidence = DefaultMaxEvidence
	}

	var b strings.Builder

	b.WriteString("다음은 채점 기준입니다:\n")
	b.WriteString(rubricText)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "아래는 학생(%s, %s)의 답안입니다:\n", studentName, studentID)
	b.WriteString(answerText)
	b.WriteString("\n\n채점 결과를 아래 형식으로 작성하세요:\n")
	b.WriteString("1. 채점 기준의 항목을 그대로 사용하고, 새로운 항목을 만들지 마세요.\n")
	b.WriteString("2. 정확히 `| 채점 항목 | 배점 | 부여 점수 | 평가 근거 |` 헤더의 마크다운 표를 사용하세요. ")
	b.WriteString("각 행은 |로 시작하고 |로 끝나며, 헤더 아래에 |---|---|---|---| 구분선을 넣으세요.\n")
	b.WriteString("3. 부여 점수는 각 항목의 배점을 초과할 수 없습니다.\n")
	b.WriteString("4. 평가 근거는 답안의 내용에 근거하여 구체적으로 작성하세요. 일반적인 칭찬은 쓰지 마세요.\n")
	fmt.Fprintf(&b, "5. 표 아래에 **근거 문장:** 블록을 작성하세요. 항목별 최대 %d개, 반드시 학생 답안에서 직접 발췌한 문장을 쌍따옴표로 기재하세요.\n", maxEvidence)
	b.WriteString("   형식: - 항목명: \"발췌 문장\"\n")
	b.WriteString("6. 마지막에 **총점: XX점** 한 줄과 **총평:** 한 줄을 작성하세요.\n")

	return b.String()
}
