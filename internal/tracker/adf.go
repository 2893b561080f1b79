package tracker

import (
	"encoding/json"
	"strings"
)

// adfText extracts plain text from an Atlassian Document Format value.
// Text nodes are joined with single spaces. Plain strings pass through.
func adfText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return strings.Join(collectADF(v, nil), " ")
}

func collectADF(v interface{}, parts []string) []string {
	switch node := v.(type) {
	case string:
		if node != "" {
			parts = append(parts, node)
		}
	case []interface{}:
		for _, child := range node {
			parts = collectADF(child, parts)
		}
	case map[string]interface{}:
		if node["type"] == "text" {
			if text, ok := node["text"].(string); ok && text != "" {
				parts = append(parts, text)
			}
			return parts
		}
		if content, ok := node["content"]; ok {
			parts = collectADF(content, parts)
		}
	}
	return parts
}

// adfDocument wraps plain text as a one-paragraph ADF document.
func adfDocument(text string) map[string]interface{} {
	return map[string]interface{}{
		"type":    "doc",
		"version": 1,
		"content": []interface{}{
			map[string]interface{}{
				"type": "paragraph",
				"content": []interface{}{
					map[string]interface{}{"type": "text", "text": text},
				},
			},
		},
	}
}
