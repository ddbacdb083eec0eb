package notes

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// encodeTags serializes tags to the JSON array stored in notes.tags.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(data), nil
}

func decodeTags(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags %q: %w", raw, err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// tagElementPatterns returns the two substrings that appear in an encoded
// list whenever tag is one of its elements: the quoted tag as the first
// element, or after a separator. Quoting keeps "wo" from matching "work".
func tagElementPatterns(tag string) (first, later string, err error) {
	quoted, err := json.Marshal(tag)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode tag filter: %w", err)
	}
	return "[" + string(quoted), "," + string(quoted), nil
}

// distinctSorted flattens tag lists into a lexicographically sorted set.
func distinctSorted(lists [][]string) []string {
	seen := make(map[string]struct{})
	for _, tags := range lists {
		for _, tag := range tags {
			seen[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// escapeLike escapes LIKE wildcards so the pattern matches s literally when
// used with ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
