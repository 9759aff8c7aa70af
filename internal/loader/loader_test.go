package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/ziadkadry99/docqa/internal/apperr"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadUTF8(t *testing.T) {
	path := writeFile(t, "Requirements.txt", []byte("The system shall log every request.\n"))

	doc, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Text != "The system shall log every request.\n" {
		t.Errorf("unexpected text %q", doc.Text)
	}
	if doc.Source != "Requirements.txt" {
		t.Errorf("source: got %q", doc.Source)
	}
	if doc.Encoding != "utf-8" {
		t.Errorf("encoding: got %q", doc.Encoding)
	}
}

func TestLoadStripsUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...)
	doc, err := Decode("bom.txt", data, Options{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Text != "hello" {
		t.Errorf("BOM not stripped: %q", doc.Text)
	}
}

func TestLoadFallsBackToWindows1251(t *testing.T) {
	want := "Политика безопасности"
	encoded, err := charmap.Windows1251.NewEncoder().String(want)
	if err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, "policy.txt", []byte(encoded))

	doc, err := Load(path, Options{Encoding: "utf-8", Fallbacks: []string{"windows-1251"}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Text != want {
		t.Errorf("got %q, want %q", doc.Text, want)
	}
	if doc.Encoding != "windows-1251" {
		t.Errorf("encoding: got %q, want windows-1251", doc.Encoding)
	}
}

func TestLoadRequestedEncoding(t *testing.T) {
	want := "Отчёт"
	encoded, _ := charmap.Windows1251.NewEncoder().String(want)

	doc, err := Decode("report.txt", []byte(encoded), Options{Encoding: "cp1251"})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Text != want {
		t.Errorf("got %q, want %q", doc.Text, want)
	}
}

func TestLoadUTF16WithBOM(t *testing.T) {
	// "hi" in UTF-16LE with BOM.
	data := []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}
	doc, err := Decode("wide.txt", data, Options{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Text != "hi" {
		t.Errorf("got %q, want %q", doc.Text, "hi")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"), Options{})
	if !errors.Is(err, apperr.ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}

func TestLoadBinaryRejected(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")
	_, err := Decode("image.txt", png, Options{})
	if !errors.Is(err, apperr.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestLoadInvalidUTF8NotReturnedAsUTF8(t *testing.T) {
	encoded, _ := charmap.Windows1251.NewEncoder().String("Привет")
	doc, err := Decode("ru.txt", []byte(encoded), Options{Encoding: "utf-8"})
	if err != nil {
		if !errors.Is(err, apperr.ErrDecode) {
			t.Errorf("expected ErrDecode, got %v", err)
		}
		return
	}
	if doc.Encoding == "utf-8" {
		t.Errorf("invalid UTF-8 accepted as utf-8: %q", doc.Text)
	}
}

func TestLoadUnknownEncoding(t *testing.T) {
	_, err := Decode("a.txt", []byte("abc"), Options{Encoding: "no-such-encoding"})
	if !errors.Is(err, apperr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	doc, err := Decode("empty.txt", nil, Options{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Text != "" {
		t.Errorf("expected empty text, got %q", doc.Text)
	}
}
