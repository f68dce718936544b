package commands

import (
	"strings"
	"testing"

	"github.com/jmylchreest/larder/pkg/cleaner"
)

func TestCleanChain(t *testing.T) {
	tests := []struct {
		stage, format string
		want          string
		wantErr       bool
	}{
		{"sanitized", "html", "chain(locator->sanitizer)", false},
		{"located", "html", "chain(locator)", false},
		{"sanitized", "markdown", "chain(locator->sanitizer->markdown)", false},
		{"bogus", "html", "", true},
		{"sanitized", "pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.stage+"/"+tt.format, func(t *testing.T) {
			chain, err := cleanChain(tt.stage, tt.format, "https://example.com/soup")
			if (err != nil) != tt.wantErr {
				t.Fatalf("cleanChain() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && chain.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", chain.Name(), tt.want)
			}
		})
	}
}

func TestCleanChain_Output(t *testing.T) {
	chain, err := cleanChain("sanitized", "html", "")
	if err != nil {
		t.Fatal(err)
	}
	var _ cleaner.Cleaner = chain

	out, err := chain.Clean(`<html><body><nav>Menu</nav><article><h2>Soup</h2><ul class="x"><li>1 leek</li></ul></article></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "Soup<br><ul><li>1 leek</li></ul>" {
		t.Errorf("Clean() = %q", out)
	}
}

func TestSiteOrigin(t *testing.T) {
	tests := map[string]string{
		"https://example.com/a/b?c=d": "https://example.com",
		"http://localhost:8080/x":     "http://localhost:8080",
		"":                            "",
		"not a url":                   "",
	}
	for in, want := range tests {
		if got := siteOrigin(in); got != want {
			t.Errorf("siteOrigin(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReduction(t *testing.T) {
	if got := reduction(0, 0); got != "0% smaller" {
		t.Errorf("reduction(0,0) = %q", got)
	}
	if got := reduction(1000, 250); !strings.HasPrefix(got, "75.0%") {
		t.Errorf("reduction(1000,250) = %q", got)
	}
}
