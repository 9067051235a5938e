package grading

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHighlightMarksVerifiedSpans(t *testing.T) {
	answer := "지도학습은 라벨이 포함된 데이터를 사용한다\n예시로는 스팸 분류가 있다"
	evidence := []Evidence{
		{Criterion: "개념", Quote: "지도학습은 라벨이 포함된 데이터를 사용한다", Verification: VerifiedExact, Matched: "지도학습은 라벨이 포함된 데이터를 사용한다"},
		{Criterion: "예시", Quote: "예시로는 스팸 분류가 있다.", Verification: VerifiedFuzzy, Matched: "예시로는 스팸 분류가 있다"},
	}

	rendered := Highlight(answer, evidence)

	require.Contains(t, rendered, "<mark")
	require.Contains(t, rendered, "지도학습은 라벨이 포함된 데이터를 사용한다")
	require.Equal(t, 2, strings.Count(rendered, "<mark"))
}

func TestHighlightSkipsUnverifiedEvidence(t *testing.T) {
	answer := "학생이 실제로 작성한 답안"
	evidence := []Evidence{
		{Criterion: "개념", Quote: "존재하지 않는 문장", Verification: Unverified},
	}

	rendered := Highlight(answer, evidence)
	require.NotContains(t, rendered, "<mark")
	require.Contains(t, rendered, "학생이 실제로 작성한 답안")
}

func TestHighlightStripsInjectedMarkup(t *testing.T) {
	answer := "답안에 <script>alert(1)</script> 가 포함됨"
	rendered := Highlight(answer, nil)
	require.NotContains(t, rendered, "<script>")
}

func TestVerifySimilarityBounds(t *testing.T) {
	require.Equal(t, 1.0, similarity("같다", "같다"))
	require.Greater(t, similarity("지도학습은 라벨이 포함된 데이터를 쓴다", "지도학습은 라벨이 포함된 데이터를 쓴다."), 0.9)
	require.Less(t, similarity("완전히 다른 문장", "전혀 관련 없는 내용입니다"), 0.5)
}

func TestVerifyEmptyQuoteIsUnverified(t *testing.T) {
	status, matched := verify("   ", "아무 답안", DefaultFuzzyThreshold)
	require.Equal(t, Unverified, status)
	require.Empty(t, matched)
}
