package rubric

import (
	"strings"
)

// Prompt templates below are the other half of the table protocol: they
// instruct the model to emit exactly the shape Parse understands. Keep them
// in sync with parse.go and render.go.

// GeneratePrompt builds the rubric-creation prompt for a problem text.
func GeneratePrompt(problemText string) string {
	var b strings.Builder

	b.WriteString("당신은 대학 시험을 채점하는 채점관입니다.\n\n")
	b.WriteString("다음 문제에 대한 채점 기준을 작성해 주세요.\n\n")
	b.WriteString("문제:\n")
	b.WriteString(problemText)
	b.WriteString("\n\n작성 규칙 (아래 형식을 반드시 그대로 지킬 것):\n")
	b.WriteString("1. 반드시 마크다운 표로 작성하세요.\n")
	b.WriteString("2. 헤더는 `| 채점 항목 | 배점 | 세부 기준 |` 이고, 그 아래 구분선은 `|---|---|---|` 입니다.\n")
	b.WriteString("3. 각 행은 반드시 |로 시작하고 |로 끝나야 하며, 총 3개의 열을 포함해야 합니다.\n")
	b.WriteString("4. 각 항목의 세부 기준은 구체적으로, 한글로만 작성하세요.\n")
	b.WriteString("5. 표 아래에 반드시 \"**배점 총합: XX점**\"을 작성하세요.\n\n")
	b.WriteString("예시 형식:\n")
	b.WriteString("| 채점 항목 | 배점 | 세부 기준 |\n")
	b.WriteString("|---------|-----|---------|\n")
	b.WriteString("| 항목 1 | 5점 | 세부 기준 설명 |\n")
	b.WriteString("| 항목 2 | 10점 | 세부 기준 설명 |\n\n")
	b.WriteString("**배점 총합: 15점**\n")

	return b.String()
}

// RevisePrompt builds the rubric-revision prompt from the current rubric in
// canonical text form and the instructor's feedback.
func RevisePrompt(rubricText, feedback string) string {
	var b strings.Builder

	b.WriteString("기존 채점 기준:\n\n")
	b.WriteString(rubricText)
	b.WriteString("\n\n교수자 피드백:\n")
	b.WriteString(feedback)
	b.WriteString("\n\n위 피드백을 반영하여 수정된 채점 기준 마크다운 표를 생성하세요.\n\n")
	b.WriteString("출력 지침:\n")
	b.WriteString("1. 기존 표 형식을 그대로 유지하세요: `| 채점 항목 | 배점 | 세부 기준 |` 헤더와 `|---|---|---|` 구분선.\n")
	b.WriteString("2. 피드백에서 요구하지 않은 항목은 임의로 삭제하거나 합치지 마세요.\n")
	b.WriteString("3. 표 아래에 반드시 \"**배점 총합: X점**\"을 작성하세요.\n")
	b.WriteString("4. 모든 출력은 한글로만 작성하세요.\n")

	return b.String()
}

// RegenerateNotice is shown to callers attempting a destructive replace of an
// original rubric without confirmation.
const RegenerateNotice = "기존 채점 기준이 이미 존재합니다. 재생성하려면 overwrite를 명시하세요."
