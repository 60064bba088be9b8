package scraper

import (
	"strings"
	"testing"
)

func TestDetectBlock(t *testing.T) {
	longText := strings.Repeat("Product details and specifications. ", 40)

	tests := []struct {
		name    string
		html    string
		blocked bool
	}{
		{
			"recaptcha widget",
			`<html><body><div class="g-recaptcha" data-sitekey="x"></div></body></html>`,
			true,
		},
		{
			"cloudflare interstitial title",
			`<html><head><title>Just a moment...</title></head><body>Checking your browser</body></html>`,
			true,
		},
		{
			"access denied title",
			`<html><head><title>Access Denied</title></head><body></body></html>`,
			true,
		},
		{
			"rate limit body text",
			`<html><head><title>Search</title></head><body><p>Our systems have detected unusual traffic from your computer network.</p></body></html>`,
			true,
		},
		{
			"hcaptcha iframe",
			`<html><body><iframe src="https://js.hcaptcha.com/1/api.js"></iframe></body></html>`,
			true,
		},
		{
			"login wall",
			`<html><body><form><input type="email"><input type="password"><button>Sign in</button></form></body></html>`,
			true,
		},
		{
			"content page with login form",
			`<html><body><p>` + longText + `</p><form><input type="password"></form></body></html>`,
			false,
		},
		{
			"ordinary page",
			`<html><head><title>Acme Corp</title></head><body><p>` + longText + `</p></body></html>`,
			false,
		},
		{
			"empty page",
			``,
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectBlock(tt.html); got != tt.blocked {
				t.Errorf("DetectBlock() = %v, want %v", got, tt.blocked)
			}
		})
	}
}
