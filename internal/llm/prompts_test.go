package llm

import (
	"strings"
	"testing"
)

func TestPromptTemplateKnownVersions(t *testing.T) {
	for _, version := range []string{"v1", "v2", " v2 "} {
		p, ok := PromptTemplate(version)
		if !ok {
			t.Fatalf("expected %q to be recognized", version)
		}
		if p.System == "" || !strings.Contains(p.User, textPlaceholder) {
			t.Fatalf("prompt %q incomplete: %+v", version, p)
		}
	}
}

func TestPromptTemplateFallsBackToV1(t *testing.T) {
	p, ok := PromptTemplate("v99")
	if ok {
		t.Fatalf("expected unknown version to report false")
	}
	v1, _ := PromptTemplate("v1")
	if p != v1 {
		t.Fatalf("expected fallback to v1")
	}
}

func TestRenderEmbedsText(t *testing.T) {
	p, _ := PromptTemplate("v1")
	out := p.Render("hello world")
	if !strings.Contains(out, "hello world") || strings.Contains(out, textPlaceholder) {
		t.Fatalf("unexpected render: %q", out)
	}
}

func TestMustParseCatalogRequiresDefault(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for catalog without v1")
		}
	}()
	mustParseCatalog([]byte("summary:\n  v2:\n    system: s\n    user: u\n"))
}
