package ident

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentify(t *testing.T) {
	cases := []struct {
		filename string
		name     string
		id       string
	}{
		{"기말시험_홍길동_202312345.pdf", "홍길동", "202312345"},
		{"202312345 김철수 답안.pdf", "김철수", "202312345"},
		{"중간과제_이영희.pdf", "이영희", UnknownID},
		{"assignment_202301234.pdf", UnknownName, "202301234"},
		{"final.pdf", UnknownName, UnknownID},
		// Boilerplate tokens must not be mistaken for names.
		{"기말_제출_답안_20231111.pdf", UnknownName, "20231111"},
		// Several digit runs: the last long run is the id.
		{"2024 기말 박민수 200011112.pdf", "박민수", "200011112"},
	}

	for _, tc := range cases {
		name, id := Identify(tc.filename)
		require.Equal(t, tc.name, name, tc.filename)
		require.Equal(t, tc.id, id, tc.filename)
	}
}

func TestIdentifyNeverFails(t *testing.T) {
	name, id := Identify("")
	require.Equal(t, UnknownName, name)
	require.Equal(t, UnknownID, id)
}
