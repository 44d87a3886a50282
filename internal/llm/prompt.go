package llm

import "strings"

// ExtractJSON extracts a JSON object from an LLM response.
// Models sometimes wrap the object in a markdown fence or add prose around it.
func ExtractJSON(content string) string {
	if obj := extractFromCodeBlock(content, "```json", "```"); obj != "" {
		return obj
	}
	if obj := extractFromCodeBlock(content, "```", "```"); obj != "" {
		return obj
	}

	content = strings.TrimSpace(content)
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start == -1 || end < start {
		return content
	}
	return content[start : end+1]
}

func extractFromCodeBlock(content, startMarker, endMarker string) string {
	startIdx := strings.Index(content, startMarker)
	if startIdx == -1 {
		return ""
	}

	contentStart := startIdx + len(startMarker)
	// Skip newline after marker
	if contentStart < len(content) && content[contentStart] == '\n' {
		contentStart++
	}

	endIdx := strings.Index(content[contentStart:], endMarker)
	if endIdx == -1 {
		return ""
	}

	block := strings.TrimSpace(content[contentStart : contentStart+endIdx])
	if !strings.HasPrefix(block, "{") {
		return ""
	}
	return block
}

// MergeConsecutive joins adjacent messages of the same role.
// Some providers reject histories that do not alternate user and assistant turns.
func MergeConsecutive(history []Message) []Message {
	merged := make([]Message, 0, len(history))
	for _, m := range history {
		if n := len(merged); n > 0 && merged[n-1].Role == m.Role {
			merged[n-1].Content += "\n\n" + m.Content
			continue
		}
		merged = append(merged, m)
	}
	return merged
}
