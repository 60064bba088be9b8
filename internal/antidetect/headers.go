package antidetect

import (
	"fmt"
	"strings"
)

// StealthHeaders returns the extra HTTP headers a real browser with the
// given fingerprint would send. Client-hint headers are derived from the
// user agent so the two can never disagree.
func StealthHeaders(fp FingerprintProfile) map[string]string {
	headers := map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
		"Accept-Language":           acceptLanguage(fp.Locale),
		"Accept-Encoding":           "gzip, deflate, br, zstd",
		"Cache-Control":             "max-age=0",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"Upgrade-Insecure-Requests": "1",
		"DNT":                       "1",
		"Priority":                  "u=0, i",
	}

	// Firefox and Safari do not send Sec-Ch-Ua headers at all.
	if strings.Contains(fp.UserAgent, "Chrome/") {
		headers["Sec-Ch-Ua"] = secChUA(fp.UserAgent)
		if fp.IsMobile {
			headers["Sec-Ch-Ua-Mobile"] = "?1"
		} else {
			headers["Sec-Ch-Ua-Mobile"] = "?0"
		}
		headers["Sec-Ch-Ua-Platform"] = secChUAPlatform(fp)
	}

	return headers
}

func acceptLanguage(locale string) string {
	base := locale
	if i := strings.Index(locale, "-"); i > 0 {
		base = locale[:i]
	}
	if base == locale {
		return locale
	}
	return fmt.Sprintf("%s,%s;q=0.9", locale, base)
}

func secChUA(userAgent string) string {
	version := chromeMajorVersion(userAgent)
	return fmt.Sprintf(`"Chromium";v=%q, "Google Chrome";v=%q, "Not?A_Brand";v="99"`, version, version)
}

func chromeMajorVersion(userAgent string) string {
	const marker = "Chrome/"
	i := strings.Index(userAgent, marker)
	if i < 0 {
		return "130"
	}
	rest := userAgent[i+len(marker):]
	if j := strings.Index(rest, "."); j > 0 {
		return rest[:j]
	}
	return "130"
}

func secChUAPlatform(fp FingerprintProfile) string {
	switch {
	case fp.IsMobile && strings.Contains(fp.UserAgent, "Android"):
		return `"Android"`
	case fp.IsMobile:
		return `"iOS"`
	case strings.Contains(fp.UserAgent, "Windows"):
		return `"Windows"`
	case strings.Contains(fp.UserAgent, "Macintosh"):
		return `"macOS"`
	default:
		return `"Linux"`
	}
}
