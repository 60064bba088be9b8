package output

import (
	"encoding/json"
	"strings"

	"github.com/kvolkov/leadharvest/internal/scraper"
)

// record is the flat row shape shared by the tabular sinks. Payloads that
// are not Contact values land JSON-encoded in the Raw column so custom
// extractors still get persisted.
type record struct {
	URL    string
	Title  string
	Emails string
	Phones string
	Social string
	Raw    string
}

func flatten(r scraper.TaskResult) record {
	if c, ok := r.Payload.(*scraper.Contact); ok {
		return record{
			URL:    r.URL,
			Title:  c.Title,
			Emails: strings.Join(c.Emails, "; "),
			Phones: strings.Join(c.Phones, "; "),
			Social: strings.Join(c.SocialLinks, "; "),
		}
	}
	raw, err := json.Marshal(r.Payload)
	if err != nil {
		raw = []byte(`"unencodable payload"`)
	}
	return record{URL: r.URL, Raw: string(raw)}
}
