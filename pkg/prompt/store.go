// Package prompt keeps versioned system prompts for the agents. The built-in
// prompts are version 1; overrides loaded from disk become later versions so
// the previous text stays available for diffing.
package prompt

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

//go:embed system/*.md
var builtin embed.FS

// Prompt represents a versioned prompt artifact.
type Prompt struct {
	Name    string
	Version int
	Body    string
	Meta    map[string]string
}

// Issue describes a lint finding.
type Issue struct {
	Rule    string
	Message string
}

var secretMarkers = []string{"aws_secret_access_key", "begin private key", "sk-"}

// Lint runs basic checks on prompts. Every system prompt must ask for JSON
// since the reasoning gateway only accepts JSON objects.
func Lint(p Prompt) []Issue {
	var issues []Issue
	if p.Name == "" {
		issues = append(issues, Issue{Rule: "name.required", Message: "name is required"})
	}
	body := strings.TrimSpace(p.Body)
	if body == "" {
		issues = append(issues, Issue{Rule: "body.required", Message: "body is empty"})
		return issues
	}
	if !strings.Contains(body, "JSON") {
		issues = append(issues, Issue{Rule: "contract.json", Message: "body must request a JSON object"})
	}
	lower := strings.ToLower(body)
	for _, m := range secretMarkers {
		if strings.Contains(lower, m) {
			issues = append(issues, Issue{Rule: "security.secrets", Message: "body appears to contain secrets-like content"})
			break
		}
	}
	return issues
}

// Store is an in-memory versioned prompt store.
type Store struct {
	mu   sync.RWMutex
	data map[string][]Prompt // name -> versions (ascending)
}

func NewStore() *Store { return &Store{data: make(map[string][]Prompt)} }

var ErrLintFailed = errors.New("prompt failed lint checks")

// Defaults returns a store holding the built-in system prompt for every agent.
func Defaults() *Store {
	s := NewStore()
	if err := s.Load(builtin, "system"); err != nil {
		panic(fmt.Sprintf("prompt: built-in prompts: %v", err))
	}
	return s
}

// Load saves every <name>.md file of dir as a new version of <name>.
func (s *Store) Load(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		if _, issues, err := s.Save(Prompt{Name: name, Body: string(b), Meta: map[string]string{"source": path.Join(dir, e.Name())}}); err != nil {
			return fmt.Errorf("%s: %w: %v", name, err, issues)
		}
	}
	return nil
}

// Save adds a new version. If name exists, version increments by 1; otherwise starts at 1.
// Lint failures return ErrLintFailed along with the issues.
func (s *Store) Save(p Prompt) (Prompt, []Issue, error) {
	if issues := Lint(p); len(issues) > 0 {
		return Prompt{}, issues, ErrLintFailed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	versions := s.data[p.Name]
	next := 1
	if len(versions) > 0 {
		next = versions[len(versions)-1].Version + 1
	}
	np := Prompt{Name: p.Name, Version: next, Body: strings.TrimSpace(p.Body), Meta: p.Meta}
	s.data[p.Name] = append(versions, np)
	return np, nil, nil
}

// Get retrieves specific version; if version==0 returns latest.
func (s *Store) Get(name string, version int) (Prompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.data[name]
	if len(versions) == 0 {
		return Prompt{}, false
	}
	if version <= 0 {
		return versions[len(versions)-1], true
	}
	i := sort.Search(len(versions), func(i int) bool { return versions[i].Version >= version })
	if i < len(versions) && versions[i].Version == version {
		return versions[i], true
	}
	return Prompt{}, false
}

// Body returns the latest text for name, or "" when unknown.
func (s *Store) Body(name string) string {
	p, _ := s.Get(name, 0)
	return p.Body
}

// List returns all versions for a name in ascending order.
func (s *Store) List(name string) []Prompt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Prompt(nil), s.data[name]...)
}

// Names returns every stored prompt name, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for n := range s.data {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
