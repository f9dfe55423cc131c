package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON parses the first JSON object found in text. Models in JSON
// mode usually return a bare object, but some wrap it in markdown fences
// or prose; the fallback slices from the first '{' to the last '}'.
func ExtractJSON(text string) (map[string]interface{}, error) {
	text = strings.TrimSpace(text)

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(text), &result); err == nil {
		return result, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON from response: %w", err)
	}
	return result, nil
}
