package extract

import "regexp"

// urlPattern matches absolute http/https URLs including path, query and
// fragment. Other schemes (ftp, mailto, javascript) are out of scope for
// reputation checking and intentionally not matched.
var urlPattern = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)

// URLs returns every absolute http/https URL found in text, deduplicated on
// exact string equality and ordered by first occurrence. No normalization is
// applied, so "http://a" and "http://a/" are distinct entries. Text with no
// matches yields an empty slice.
func URLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return []string{}
	}

	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
