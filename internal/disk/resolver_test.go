package disk

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveIsDeterministic(t *testing.T) {
	r := NewResolver("/srv/files/")
	a := r.Resolve("Teste", "temp", "f.txt")
	b := r.Resolve("Teste", "temp", "f.txt")
	if a != b {
		t.Fatalf("same input resolved to %q and %q", a, b)
	}
	want := filepath.Join("/srv/files", "Teste", "temp", "f.txt")
	if a != want {
		t.Fatalf("expected %q, got %q", want, a)
	}
}

func TestResolveIsInjective(t *testing.T) {
	r := NewResolver(t.TempDir())
	values := []string{"a", "b", "ab", "a-b", "a b", "temp", "abc123", "A"}

	seen := make(map[string][3]string)
	for _, app := range values {
		for _, ref := range values {
			for _, name := range values {
				triple := [3]string{app, ref, name}
				p := r.Resolve(app, ref, name)
				if prev, ok := seen[p]; ok {
					t.Fatalf("%v and %v both resolve to %q", prev, triple, p)
				}
				seen[p] = triple
			}
		}
	}
}

func TestResolveKeepsComponentsInOrder(t *testing.T) {
	r := NewResolver("/root")
	p := r.Resolve("app", "ref", "name.bin")
	rel, err := filepath.Rel("/root", p)
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) != 3 || parts[0] != "app" || parts[1] != "ref" || parts[2] != "name.bin" {
		t.Fatalf("unexpected layout %v", parts)
	}
	if r.Dir("app", "ref") != filepath.Dir(p) {
		t.Fatalf("Dir %q does not contain %q", r.Dir("app", "ref"), p)
	}
}

func TestValidateComponent(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"plain", "abc123", true},
		{"uuid name", "0b3e8a4c-1f0e-4d4e-9a57-7d3c1f2b9e10.pdf", true},
		{"spaces", "my file", true},
		{"unicode", "relatório", true},
		{"empty", "", false},
		{"dot", ".", false},
		{"dotdot", "..", false},
		{"hidden", ".journal", false},
		{"slash", "a/b", false},
		{"backslash", `a\b`, false},
		{"nul", "a\x00b", false},
		{"newline", "a\nb", false},
		{"too long", strings.Repeat("x", maxComponentLen+1), false},
		{"max length", strings.Repeat("x", maxComponentLen), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateComponent(tt.value)
			if tt.ok && err != nil {
				t.Fatalf("expected %q to be valid, got %v", tt.value, err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatalf("expected %q to be rejected", tt.value)
				}
				if !errors.Is(err, ErrInvalidComponent) {
					t.Fatalf("expected ErrInvalidComponent, got %v", err)
				}
			}
		})
	}
}
