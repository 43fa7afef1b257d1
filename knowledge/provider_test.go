package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFetchContextReturnsWholeDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kb.md")
	content := "# Pricing\nBasic: $29/mo\nPro: $79/mo\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewFileProvider(path)
	got, err := p.FetchContext(context.Background(), "how much is pro?")
	if err != nil {
		t.Fatalf("FetchContext: %v", err)
	}
	if got != content {
		t.Errorf("context = %q, want full document", got)
	}
}

func TestFetchContextMissingFile(t *testing.T) {
	p := NewFileProvider(filepath.Join(t.TempDir(), "absent.md"))
	got, err := p.FetchContext(context.Background(), "anything")
	if err != nil {
		t.Fatalf("missing file should not be an error, got %v", err)
	}
	if got != "Error: knowledge base not found." {
		t.Errorf("context = %q", got)
	}
}
