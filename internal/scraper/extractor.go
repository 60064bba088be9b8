package scraper

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	cerrors "github.com/kvolkov/leadharvest/internal/errors"
)

// Contact is the payload produced by the default extractor: whatever
// reachable contact surface a page exposes.
type Contact struct {
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	Emails      []string `json:"emails,omitempty"`
	Phones      []string `json:"phones,omitempty"`
	SocialLinks []string `json:"social_links,omitempty"`
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)

	socialHosts = []string{
		"linkedin.com",
		"twitter.com",
		"x.com",
		"facebook.com",
		"instagram.com",
		"github.com",
		"youtube.com",
	}

	// Image and font extensions masquerade as emails in srcset attributes.
	bogusEmailSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".woff", ".woff2"}
)

// ContactExtractor parses rendered HTML into a Contact record. It never
// treats an empty page as an error; a page with no contacts is a success
// with an empty payload.
type ContactExtractor struct{}

// NewContactExtractor returns the stock extractor.
func NewContactExtractor() *ContactExtractor { return &ContactExtractor{} }

// Extract implements Extractor.
func (e *ContactExtractor) Extract(ctx context.Context, url, html string) (interface{}, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, cerrors.New(cerrors.KindCollaborator, "extract", err)
	}

	c := &Contact{
		URL:   url,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	seen := map[string]bool{}
	add := func(dst *[]string, v string) {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		*dst = append(*dst, v)
	}

	// mailto: and tel: anchors carry the cleanest values, mine them first.
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		switch {
		case strings.HasPrefix(href, "mailto:"):
			addr := strings.SplitN(strings.TrimPrefix(href, "mailto:"), "?", 2)[0]
			if emailRe.MatchString(addr) {
				add(&c.Emails, addr)
			}
		case strings.HasPrefix(href, "tel:"):
			add(&c.Phones, strings.TrimPrefix(href, "tel:"))
		default:
			for _, host := range socialHosts {
				if strings.Contains(href, host) {
					add(&c.SocialLinks, href)
					break
				}
			}
		}
	})

	body := doc.Find("body").Text()
	for _, m := range emailRe.FindAllString(body, -1) {
		if realEmail(m) {
			add(&c.Emails, m)
		}
	}
	for _, m := range phoneRe.FindAllString(body, -1) {
		if digits(m) >= 8 {
			add(&c.Phones, m)
		}
	}

	return c, nil
}

func realEmail(s string) bool {
	low := strings.ToLower(s)
	for _, suf := range bogusEmailSuffixes {
		if strings.HasSuffix(low, suf) {
			return false
		}
	}
	return true
}

func digits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
