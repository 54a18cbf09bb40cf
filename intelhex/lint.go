package intelhex

import "strings"

// Problem is a single finding from Lint.
type Problem struct {
	Index int // 0-based line index
	Err   error
}

// Lint checks every non-blank line for structure and checksum. It does not
// stop at the first problem.
func Lint(lines []string) []Problem {
	var problems []Problem
	var sawEOF bool
	for idx, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := ParseLine(line)
		if err != nil {
			problems = append(problems, Problem{Index: idx, Err: err})
		}
		if rec != nil && rec.RecType == RecordEOF {
			sawEOF = true
		}
	}
	if !sawEOF {
		problems = append(problems, Problem{Index: len(lines), Err: ErrMissingEOF})
	}
	return problems
}
