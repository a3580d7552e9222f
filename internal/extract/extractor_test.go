package extract

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_act.pdf", "x")
	writeFile(t, dir, "A_ACT.PDF", "x")
	writeFile(t, dir, "notes.txt", "x")
	if err := os.Mkdir(filepath.Join(dir, "case_pdfs.pdf"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := ScanDir(dir, []string{".pdf"})
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	want := []string{filepath.Join(dir, "A_ACT.PDF"), filepath.Join(dir, "b_act.pdf")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ScanDir() = %v, want %v", got, want)
	}
}

func TestScanDir_noDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.txt", "x")
	_, err := ScanDir(dir, nil)
	if !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
}

func TestScanDir_missingDir(t *testing.T) {
	_, err := ScanDir(filepath.Join(t.TempDir(), "nope"), nil)
	if err == nil || errors.Is(err, ErrNoDocuments) {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestSupported(t *testing.T) {
	for ext, want := range map[string]bool{".pdf": true, ".PDF": true, ".md": true, ".txt": true, ".docx": false, "": false} {
		if got := Supported(ext); got != want {
			t.Errorf("Supported(%q) = %v, want %v", ext, got, want)
		}
	}
}

func TestExtractPages_plainFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "act.txt", "Section 1\nSection 2")
	pages, err := NewExtractor().ExtractPages(path, 0)
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	if len(pages) != 1 || pages[0] != "Section 1\nSection 2" {
		t.Errorf("got %q", pages)
	}
}

func TestExtract_plainInvalidUTF8(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.md", "hello\x80world")
	got, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "hello�world" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	if _, err := NewExtractor().Extract("/nonexistent/file.pdf"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestExtractPages_unsupported(t *testing.T) {
	path := writeFile(t, t.TempDir(), "brief.docx", "x")
	if _, err := NewExtractor().ExtractPages(path, 0); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestExtractPages_invalidPDF(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.pdf", "this is not a pdf")
	if _, err := NewExtractor().ExtractPages(path, 0); err == nil {
		t.Error("expected error for unreadable PDF")
	}
}

func TestPageText(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		got, err := pageText(func() (string, error) { return "page one", nil })
		if err != nil || got != "page one" {
			t.Errorf("got %q, %v", got, err)
		}
	})
	t.Run("error yields empty", func(t *testing.T) {
		got, err := pageText(func() (string, error) { return "partial", errors.New("bad font") })
		if err == nil || got != "" {
			t.Errorf("got %q, %v", got, err)
		}
	})
	t.Run("panic yields empty", func(t *testing.T) {
		got, err := pageText(func() (string, error) { panic("malformed stream") })
		if err == nil || got != "" {
			t.Errorf("got %q, %v", got, err)
		}
	})
}

func TestEmpty(t *testing.T) {
	if !Empty([]string{"", "  \n"}) {
		t.Error("blank pages should be empty")
	}
	if !Empty(nil) {
		t.Error("no pages should be empty")
	}
	if Empty([]string{"", "text"}) {
		t.Error("pages with text are not empty")
	}
}
