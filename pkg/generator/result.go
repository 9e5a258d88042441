package generator

import (
	"fmt"
	"strings"
)

const (
	descriptionMarker = "[DESCRIPTION]"
	suggestionsMarker = "[SUGGESTIONS]"
)

// ParseDescription は [DESCRIPTION] ... [SUGGESTIONS] - ... 形式の応答を説明と提案に分解します。
// 形式に従っていない場合は全体を説明として扱います。
func ParseDescription(text string) (string, []string) {
	text = strings.TrimSpace(text)
	di := strings.Index(text, descriptionMarker)
	si := strings.Index(text, suggestionsMarker)
	if di < 0 && si < 0 {
		return text, nil
	}

	var desc, rest string
	switch {
	case di >= 0 && si > di:
		desc = text[di+len(descriptionMarker) : si]
		rest = text[si+len(suggestionsMarker):]
	case di >= 0:
		desc = text[di+len(descriptionMarker):]
	default:
		desc = text[:si]
		rest = text[si+len(suggestionsMarker):]
	}

	var suggestions []string
	for _, line := range strings.Split(rest, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "-*•"))
		if line != "" {
			suggestions = append(suggestions, line)
		}
	}
	return strings.TrimSpace(desc), suggestions
}

// DefaultDescription は説明の生成に失敗した場合の既定文です。
func DefaultDescription(instruction string) string {
	return fmt.Sprintf(defaultDescriptionTemplate, instruction)
}

func descriptionPrompt(instruction string) string {
	return fmt.Sprintf(descriptionPromptTemplate, instruction)
}
