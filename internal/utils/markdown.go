package utils

import (
	"net/url"
	"regexp"
	"strings"
)

var markdownLinkStartRegex = regexp.MustCompile(`\[([^\[\]]*)\]\(`)

// ExtractMarkdownLink extracts the text and target of the first markdown link in s
// Matches links like: [magnet](magnet:?xt=...), [HTTPS](https://...), etc.
// Parentheses inside the target must be balanced; an unclosed link is not a match.
func ExtractMarkdownLink(s string) (text, target string, ok bool) {
	loc := markdownLinkStartRegex.FindStringSubmatchIndex(s)
	if loc == nil {
		return "", "", false
	}

	start := loc[1]
	end, ok := closingParen(s[start:])
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(s[loc[2]:loc[3]]), strings.TrimSpace(s[start : start+end]), true
}

// closingParen returns the index of the ")" closing an already opened "("
func closingParen(s string) (int, bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return i, true
			}
			depth--
		}
	}
	return 0, false
}

// URLPathSegment returns the element at index i of the URL path split on "/"
// Index 0 is the empty element before the leading slash, so for
// https://myanimelist.net/anime/1/Cowboy_Bebop index 2 is "1".
func URLPathSegment(rawURL string, i int) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "", false
	}

	parts := strings.Split(u.Path, "/")
	if i < 0 || i >= len(parts) || parts[i] == "" {
		return "", false
	}
	return parts[i], true
}
