package prompt

import (
	"fmt"
	"strings"
)

// UnifiedDiff returns a line diff of a and b built on their longest common
// subsequence. Equal inputs give "".
func UnifiedDiff(a, b string) string {
	if a == b {
		return ""
	}
	al := strings.Split(a, "\n")
	bl := strings.Split(b, "\n")

	// lcs[i][j] is the LCS length of al[i:] and bl[j:].
	lcs := make([][]int, len(al)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(bl)+1)
	}
	for i := len(al) - 1; i >= 0; i-- {
		for j := len(bl) - 1; j >= 0; j-- {
			if al[i] == bl[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("--- a\n+++ b\n")
	i, j := 0, 0
	for i < len(al) && j < len(bl) {
		switch {
		case al[i] == bl[j]:
			fmt.Fprintf(&sb, " %s\n", al[i])
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			fmt.Fprintf(&sb, "-%s\n", al[i])
			i++
		default:
			fmt.Fprintf(&sb, "+%s\n", bl[j])
			j++
		}
	}
	for ; i < len(al); i++ {
		fmt.Fprintf(&sb, "-%s\n", al[i])
	}
	for ; j < len(bl); j++ {
		fmt.Fprintf(&sb, "+%s\n", bl[j])
	}
	return sb.String()
}

// Diff compares two versions of name. Missing versions give "".
func (s *Store) Diff(name string, v1, v2 int) string {
	p1, ok1 := s.Get(name, v1)
	p2, ok2 := s.Get(name, v2)
	if !ok1 || !ok2 {
		return ""
	}
	return UnifiedDiff(p1.Body, p2.Body)
}
