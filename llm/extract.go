package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON returns the payload of the first markdown code fence in s,
// or the trimmed input when there is no fence. Models often wrap JSON
// answers in ```json blocks even when told not to.
func ExtractJSON(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	var inFence bool
	var lines []string
	for _, line := range strings.Split(trimmed, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inFence {
				break
			}
			inFence = true
			continue
		}
		if inFence {
			lines = append(lines, line)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// DecodeJSON extracts and unmarshals a JSON object from a model response.
func DecodeJSON(s string, v interface{}) error {
	return json.Unmarshal([]byte(ExtractJSON(s)), v)
}
