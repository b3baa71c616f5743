package prompt

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

func TestStore_VersioningAndLint(t *testing.T) {
	s := NewStore()

	if _, issues, err := s.Save(Prompt{Name: "", Body: "Reply in JSON"}); err == nil {
		t.Fatal("expected lint failure for missing name")
	} else if len(issues) == 0 {
		t.Fatal("expected issues")
	}
	if _, issues, err := s.Save(Prompt{Name: "x", Body: "free text please"}); !errors.Is(err, ErrLintFailed) || issues[0].Rule != "contract.json" {
		t.Fatalf("err=%v issues=%+v", err, issues)
	}

	v1, issues, err := s.Save(Prompt{Name: "planning", Body: "Answer with JSON."})
	if err != nil {
		t.Fatalf("save v1: %v (%v)", err, issues)
	}
	if v1.Version != 1 {
		t.Fatalf("v1 version=%d", v1.Version)
	}
	v2, _, err := s.Save(Prompt{Name: "planning", Body: "Answer with one JSON object."})
	if err != nil {
		t.Fatal(err)
	}
	if v2.Version != 2 {
		t.Fatalf("v2 version=%d", v2.Version)
	}

	got, ok := s.Get("planning", 0)
	if !ok || got.Version != 2 {
		t.Fatalf("get latest=%+v ok=%v", got, ok)
	}
	if got1, ok := s.Get("planning", 1); !ok || got1.Version != 1 {
		t.Fatalf("get v1=%+v ok=%v", got1, ok)
	}
	all := s.List("planning")
	if len(all) != 2 || all[0].Version != 1 || all[1].Version != 2 {
		t.Fatalf("list=%+v", all)
	}
}

func TestLint_Secrets(t *testing.T) {
	issues := Lint(Prompt{Name: "x", Body: "JSON please, key sk-abc"})
	if len(issues) != 1 || issues[0].Rule != "security.secrets" {
		t.Fatalf("issues=%+v", issues)
	}
}

func TestDefaults_AllAgents(t *testing.T) {
	s := Defaults()
	want := []string{"adaptation", "explainability", "goal-formulation", "monitoring", "planning", "reflection"}
	if got := s.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("names=%v", got)
	}
	for _, n := range want {
		if !strings.Contains(s.Body(n), "JSON") {
			t.Fatalf("%s body lacks JSON contract", n)
		}
	}
}

func TestLoadOverridesAndDiff(t *testing.T) {
	s := Defaults()
	fsys := fstest.MapFS{
		"over/planning.md": {Data: []byte("Plan carefully.\nRespond with a JSON object.")},
		"over/readme.txt":  {Data: []byte("ignored")},
	}
	if err := s.Load(fsys, "over"); err != nil {
		t.Fatal(err)
	}
	latest, _ := s.Get("planning", 0)
	if latest.Version != 2 || latest.Meta["source"] != "over/planning.md" {
		t.Fatalf("latest=%+v", latest)
	}
	d := s.Diff("planning", 1, 2)
	if !strings.Contains(d, "+Plan carefully.") || !strings.Contains(d, "-You build") {
		t.Fatalf("diff=%q", d)
	}
	if s.Diff("planning", 1, 9) != "" {
		t.Fatal("missing version must give empty diff")
	}
}

func TestUnifiedDiff_KeepsCommonLines(t *testing.T) {
	d := UnifiedDiff("a\nb\nc", "a\nx\nc")
	want := "--- a\n+++ b\n a\n-b\n+x\n c\n"
	if d != want {
		t.Fatalf("diff=%q want %q", d, want)
	}
	if UnifiedDiff("same", "same") != "" {
		t.Fatal("equal inputs must give empty diff")
	}
}
