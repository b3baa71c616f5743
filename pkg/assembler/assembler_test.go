package assembler

import (
	"testing"
)

func runes(text string) int { return len([]rune(text)) }

func TestAssemble_Pinning_Dedup_Budget(t *testing.T) {
	asm := New(WithTokenEstimator(runes), WithMaxTokens(10))

	// costs: r1=4, r2=6, r3=1, p=5
	items := []Item{
		{Key: "r1", Priority: 0, Text: "abcd"},
		{Key: "r1", Priority: 0, Text: "abcd"},
		{Key: "r2", Priority: 1, Text: "efghij"},
		{Key: "r3", Priority: 2, Text: "k"},
		{Key: "p", Priority: 9, Pinned: true, Text: "lmnop"},
	}
	out, log := asm.Assemble(items)

	keys := ""
	for _, it := range out {
		keys += it.Key + ","
	}
	if keys != "p,r1,r3," {
		t.Fatalf("selected %q", keys)
	}
	if log.IncludedTokens != 10 || log.DroppedCount != 1 {
		t.Fatalf("log mismatch: %+v", log)
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	asm := New(WithTokenEstimator(runes))
	a, _ := asm.Assemble([]Item{{Key: "b", Text: "x"}, {Key: "a", Text: "y"}})
	b, _ := asm.Assemble([]Item{{Key: "a", Text: "y"}, {Key: "b", Text: "x"}})
	if a[0].Key != "a" || b[0].Key != "a" {
		t.Fatalf("order depends on input: %v %v", a, b)
	}
}

func TestApproxTokens(t *testing.T) {
	if ApproxTokens("") != 0 || ApproxTokens("abcdefgh") != 3 {
		t.Fatal("approximation changed")
	}
}
