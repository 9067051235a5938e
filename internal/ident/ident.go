// Package ident recovers a student's display name and identifier from an
// uploaded file name. Identification is best-effort and never fails; callers
// receive sentinel values when nothing usable is found.
package ident

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Sentinel values returned when the filename carries no usable identity.
const (
	UnknownName = "UnknownName"
	UnknownID   = "UnknownID"
)

var (
	idPattern   = regexp.MustCompile(`\d{8,10}`)
	namePattern = regexp.MustCompile(`[가-힣]{2,5}`)

	// Korean exam-filename boilerplate that looks like a name but is not.
	stopWords = map[string]struct{}{
		"기말":  {},
		"중간":  {},
		"과제":  {},
		"시험":  {},
		"수업":  {},
		"레포트": {},
		"제출":  {},
		"답안":  {},
	}
)

// Identify extracts (name, id) from a filename such as
// "기말시험_홍길동_202312345.pdf". The last 8-10 digit run wins as the student
// id because it conventionally trails the name; the last non-boilerplate
// Korean token wins as the name.
func Identify(filename string) (string, string) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	studentID := UnknownID
	if ids := idPattern.FindAllString(base, -1); len(ids) > 0 {
		studentID = ids[len(ids)-1]
	}

	name := UnknownName
	for _, candidate := range namePattern.FindAllString(base, -1) {
		if _, skip := stopWords[candidate]; skip {
			continue
		}
		if studentID != UnknownID && strings.Contains(studentID, candidate) {
			continue
		}
		name = candidate
	}

	return name, studentID
}
