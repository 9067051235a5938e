package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForContentSelectsPlainForText(t *testing.T) {
	extractor, err := ForContent([]byte("지도학습은 라벨이 포함된 데이터를 사용한다"))
	require.NoError(t, err)
	require.IsType(t, Plain{}, extractor)
}

func TestForContentSelectsPDF(t *testing.T) {
	// Minimal PDF magic header is enough for type sniffing.
	extractor, err := ForContent([]byte("%PDF-1.4\n%âãÏÓ\n"))
	require.NoError(t, err)
	require.IsType(t, PDF{}, extractor)
}

func TestForContentRejectsUnknownTypes(t *testing.T) {
	_, err := ForContent([]byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported document type")
}

func TestPlainExtractPassesThrough(t *testing.T) {
	text, err := Plain{}.Extract([]byte("원본 텍스트"))
	require.NoError(t, err)
	require.Equal(t, "원본 텍스트", text)
}

func TestCleanTextDropsBoilerplateAndCollapsesBlanks(t *testing.T) {
	raw := "첫 번째 문단의 내용이다\n- 2 -\n\n\n202312345홍길동\n두 번째 문단의 내용이다\n"

	cleaned := CleanText(raw)

	require.NotContains(t, cleaned, "- 2 -")
	require.NotContains(t, cleaned, "202312345홍길동")
	require.Equal(t, "첫 번째 문단의 내용이다\n\n두 번째 문단의 내용이다", cleaned)
}

func TestCleanTextEmptyInput(t *testing.T) {
	require.Equal(t, "", CleanText(""))
	require.Equal(t, "", CleanText("\n\n\n"))
}
