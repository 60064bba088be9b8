package utils

import (
	"os"
	"path/filepath"
	"testing"

	cerrors "github.com/kvolkov/leadharvest/internal/errors"
)

func writeList(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadURLList(t *testing.T) {
	path := writeList(t, `
# targets for the acme campaign
https://a.example/contact

https://b.example/about
https://a.example/contact
http://c.example/
`)
	urls, err := ReadURLList(path)
	if err != nil {
		t.Fatalf("ReadURLList: %v", err)
	}
	want := []string{"https://a.example/contact", "https://b.example/about", "http://c.example/"}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestReadURLListRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name, body string
	}{
		{"relative url", "contact.html\n"},
		{"unsupported scheme", "ftp://files.example/\n"},
		{"missing host", "https:///path\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadURLList(writeList(t, tt.body))
			if cerrors.KindOf(err) != cerrors.KindFatalConfiguration {
				t.Errorf("err = %v, want fatal configuration", err)
			}
		})
	}
}

func TestReadURLListMissingFile(t *testing.T) {
	_, err := ReadURLList(filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Error("missing file should be an error")
	}
}
