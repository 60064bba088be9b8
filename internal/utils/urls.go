package utils

import (
	"bufio"
	"net/url"
	"os"
	"strings"

	cerrors "github.com/kvolkov/leadharvest/internal/errors"
)

// ReadURLList loads target URLs from a text file, one per line. Blank
// lines and lines starting with # are skipped; every remaining line must
// be an absolute http or https URL.
func ReadURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cerrors.New(cerrors.KindFatalConfiguration, "urls.read", err)
	}
	defer f.Close()

	var urls []string
	seen := map[string]bool{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		u, err := url.Parse(line)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, cerrors.Newf(cerrors.KindFatalConfiguration, "urls.read", "invalid url %q", line)
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, cerrors.New(cerrors.KindFatalConfiguration, "urls.read", err)
	}
	return urls, nil
}
