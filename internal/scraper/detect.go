package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Challenge-page selectors. Any match means the session has been flagged by
// the target's bot defenses.
var blockSelectors = []string{
	".g-recaptcha",
	"#captcha",
	"form#challenge-form",
	"iframe[src*='recaptcha']",
	"iframe[src*='hcaptcha']",
	"div#cf-challenge-running",
	"div[class*='captcha']",
}

// Title fragments of interstitial and rejection pages, lowercased.
var blockTitleMarkers = []string{
	"just a moment",
	"access denied",
	"attention required",
	"are you a robot",
	"security check",
	"verification required",
}

// Body phrases of soft blocks, lowercased. Checked against a bounded prefix
// of the page text to keep the scan cheap on large pages.
var blockBodyMarkers = []string{
	"unusual traffic from your computer network",
	"verify you are human",
	"please enable cookies to continue",
	"complete the security check",
	"our systems have detected unusual traffic",
}

// DetectBlock reports whether rendered HTML is a challenge, captcha or
// login wall rather than the requested content. A parse failure counts as
// not blocked: classification errors must not fail a task that the
// extractor might still handle.
func DetectBlock(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}

	for _, sel := range blockSelectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}

	title := strings.ToLower(doc.Find("title").First().Text())
	for _, marker := range blockTitleMarkers {
		if strings.Contains(title, marker) {
			return true
		}
	}

	body := strings.ToLower(doc.Find("body").Text())
	if len(body) > 4096 {
		body = body[:4096]
	}
	for _, marker := range blockBodyMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}

	return isLoginWall(doc)
}

// isLoginWall heuristically detects a page that is only a login form: a
// password field present and almost no other content.
func isLoginWall(doc *goquery.Document) bool {
	if doc.Find("input[type='password']").Length() == 0 {
		return false
	}
	text := strings.TrimSpace(doc.Find("body").Text())
	return len(text) < 600
}
