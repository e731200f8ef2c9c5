package services

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Model responses are free-form text that usually, but not always, carry a
// JSON payload. The helpers below implement one fallback chain (strict
// parse, fenced-block extraction, bare-span extraction, token split) and
// are total: they always return a usable value.

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON pulls the first JSON object or array out of a model
// response, tolerating code fences and surrounding prose. The second
// return is false when no candidate payload is present.
func ExtractJSON(content string) (string, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", false
	}

	if json.Valid([]byte(content)) {
		return content, true
	}

	if m := fencedBlock.FindStringSubmatch(content); m != nil {
		inner := strings.TrimSpace(m[1])
		if inner != "" {
			return inner, true
		}
	}

	for _, delims := range [2][2]byte{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(content, delims[0])
		end := strings.LastIndexByte(content, delims[1])
		if start >= 0 && end > start {
			return content[start : end+1], true
		}
	}

	return "", false
}

// DecodeObject unmarshals the JSON object embedded in a model response
// into out. Returns false if no parseable object could be recovered.
func DecodeObject(content string, out any) bool {
	payload, ok := ExtractJSON(content)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(payload), out) == nil
}

// ParseTagList recovers a list of tags from a model response. Strict JSON
// wins; otherwise the text is split on commas and newlines, with list
// bullets and quotes trimmed. An unusable response yields an empty list.
func ParseTagList(content string) []string {
	if payload, ok := ExtractJSON(content); ok {
		var tags []string
		if err := json.Unmarshal([]byte(payload), &tags); err == nil {
			return cleanTags(tags)
		}
	}

	split := strings.FieldsFunc(content, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	return cleanTags(split)
}

func cleanTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		t = strings.Trim(t, `"'`)
		t = strings.TrimLeft(t, "-* \t")
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
