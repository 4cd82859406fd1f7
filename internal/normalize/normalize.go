// Package normalize extracts media URLs from raw tool output.
//
// Tool invocations report their artifacts as human-readable text, typically a
// success sentence with markdown image links. Downstream consumers need bare,
// locally addressable URLs in production order. This package is the single
// place where that extraction happens.
package normalize

import (
	"regexp"

	"github.com/artboardhq/artboard/internal/domain"
)

var (
	// markdownLink matches ![alt](url); the alt text is discarded.
	markdownLink = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)\)`)

	// bareURL matches absolute http(s) URLs and server-relative media paths.
	bareURL = regexp.MustCompile(`(?:https?://[^\s)\]"']+|/api/file/[^\s)\]"']+)`)

	// localPrefix matches this server's own origin. Stripping it makes stored
	// references port-independent.
	localPrefix = regexp.MustCompile(`^https?://(?:localhost|127\.0\.0\.1):\d+`)
)

// MediaURLs extracts every media URL from the output, in order of first
// appearance, with duplicates removed and local origins stripped.
//
// Markdown image links take precedence: if the output contains any, only
// their targets are returned. Only when no markdown links exist does the
// extractor fall back to scanning for bare URLs. This keeps surrounding prose
// that happens to mention a URL from polluting the result.
func MediaURLs(out domain.ToolOutput) []string {
	text := out.Flatten()

	var raw []string
	for _, m := range markdownLink.FindAllStringSubmatch(text, -1) {
		raw = append(raw, m[1])
	}
	if len(raw) == 0 {
		raw = bareURL.FindAllString(text, -1)
	}

	seen := make(map[string]struct{}, len(raw))
	urls := make([]string, 0, len(raw))
	for _, u := range raw {
		u = StripLocalOrigin(u)
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}

// StripLocalOrigin rewrites an absolute URL pointing at this server's own
// localhost origin into a server-relative path. Remote URLs pass through
// unchanged.
func StripLocalOrigin(u string) string {
	if loc := localPrefix.FindString(u); loc != "" {
		if rest := u[len(loc):]; rest != "" {
			return rest
		}
	}
	return u
}
