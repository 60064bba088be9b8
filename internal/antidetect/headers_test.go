package antidetect

import (
	"strings"
	"testing"
)

func TestStealthHeadersChrome(t *testing.T) {
	fp := FingerprintProfile{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
		Locale:    "en-US",
	}
	h := StealthHeaders(fp)

	if got := h["Accept-Language"]; got != "en-US,en;q=0.9" {
		t.Errorf("Accept-Language = %q", got)
	}
	if got := h["Sec-Ch-Ua"]; !strings.Contains(got, `"130"`) {
		t.Errorf("Sec-Ch-Ua should carry the Chrome major version, got %q", got)
	}
	if got := h["Sec-Ch-Ua-Mobile"]; got != "?0" {
		t.Errorf("Sec-Ch-Ua-Mobile = %q, want ?0", got)
	}
	if got := h["Sec-Ch-Ua-Platform"]; got != `"Windows"` {
		t.Errorf("Sec-Ch-Ua-Platform = %q, want \"Windows\"", got)
	}
	if h["Sec-Fetch-Mode"] != "navigate" || h["Upgrade-Insecure-Requests"] != "1" {
		t.Error("navigation headers missing")
	}
}

func TestStealthHeadersFirefoxOmitsClientHints(t *testing.T) {
	fp := FingerprintProfile{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:132.0) Gecko/20100101 Firefox/132.0",
		Locale:    "en-GB",
	}
	h := StealthHeaders(fp)
	for _, k := range []string{"Sec-Ch-Ua", "Sec-Ch-Ua-Mobile", "Sec-Ch-Ua-Platform"} {
		if _, present := h[k]; present {
			t.Errorf("Firefox user agent must not send %s", k)
		}
	}
}

func TestStealthHeadersMobile(t *testing.T) {
	fp := FingerprintProfile{
		UserAgent: "Mozilla/5.0 (Linux; Android 15; Pixel 9) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Mobile Safari/537.36",
		Locale:    "en-US",
		IsMobile:  true,
	}
	h := StealthHeaders(fp)
	if got := h["Sec-Ch-Ua-Mobile"]; got != "?1" {
		t.Errorf("Sec-Ch-Ua-Mobile = %q, want ?1", got)
	}
	if got := h["Sec-Ch-Ua-Platform"]; got != `"Android"` {
		t.Errorf("Sec-Ch-Ua-Platform = %q, want \"Android\"", got)
	}
}

func TestAcceptLanguage(t *testing.T) {
	tests := []struct {
		locale, want string
	}{
		{"en-US", "en-US,en;q=0.9"},
		{"en-GB", "en-GB,en;q=0.9"},
		{"en", "en"},
	}
	for _, tt := range tests {
		if got := acceptLanguage(tt.locale); got != tt.want {
			t.Errorf("acceptLanguage(%q) = %q, want %q", tt.locale, got, tt.want)
		}
	}
}
