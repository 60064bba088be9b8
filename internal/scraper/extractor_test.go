package scraper

import (
	"context"
	"testing"
)

func TestContactExtractor(t *testing.T) {
	html := `<html>
<head><title>Acme Corp - Contact</title></head>
<body>
	<h1>Get in touch</h1>
	<a href="mailto:Sales@acme.example?subject=hi">Email sales</a>
	<a href="tel:+1-212-555-0100">Call us</a>
	<a href="https://www.linkedin.com/company/acme">LinkedIn</a>
	<a href="https://twitter.com/acmecorp">Twitter</a>
	<a href="/about">About</a>
	<p>Support: support@acme.example or +44 20 7946 0958.</p>
	<img srcset="logo@2x.png">
</body>
</html>`

	x := NewContactExtractor()
	payload, err := x.Extract(context.Background(), "https://acme.example/contact", html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	c, ok := payload.(*Contact)
	if !ok {
		t.Fatalf("payload type %T, want *Contact", payload)
	}

	if c.Title != "Acme Corp - Contact" {
		t.Errorf("title = %q", c.Title)
	}
	wantEmails := map[string]bool{"sales@acme.example": true, "support@acme.example": true}
	if len(c.Emails) != len(wantEmails) {
		t.Fatalf("emails = %v, want %v", c.Emails, wantEmails)
	}
	for _, e := range c.Emails {
		if !wantEmails[e] {
			t.Errorf("unexpected email %q", e)
		}
	}
	if len(c.Phones) != 2 {
		t.Errorf("phones = %v, want the tel link and the body number", c.Phones)
	}
	if len(c.SocialLinks) != 2 {
		t.Errorf("social links = %v, want linkedin and twitter", c.SocialLinks)
	}
}

func TestContactExtractorEmptyPage(t *testing.T) {
	x := NewContactExtractor()
	payload, err := x.Extract(context.Background(), "https://empty.example", "<html><body></body></html>")
	if err != nil {
		t.Fatalf("a page without contacts is not an error: %v", err)
	}
	c := payload.(*Contact)
	if len(c.Emails) != 0 || len(c.Phones) != 0 || len(c.SocialLinks) != 0 {
		t.Errorf("empty page yielded %+v", c)
	}
}

func TestContactExtractorIgnoresAssetNames(t *testing.T) {
	html := `<html><body><img src="hero@2x.png"><p>Write to info@acme.example</p></body></html>`
	x := NewContactExtractor()
	payload, _ := x.Extract(context.Background(), "https://acme.example", html)
	c := payload.(*Contact)
	if len(c.Emails) != 1 || c.Emails[0] != "info@acme.example" {
		t.Errorf("emails = %v, want only info@acme.example", c.Emails)
	}
}
