package qa

import "strings"

// Fallback is returned when the model produced nothing usable.
const Fallback = "Sorry, I couldn't find an answer to your question."

const endSentinel = "<|im_end|>"

// ExtractAnswer reduces raw model output to a single answer line.
//
// Models occasionally echo the question back before answering. When the
// first non-blank line looks like an echo (it contains "Question:" or "Q:"),
// the answer is taken from the next line instead. Trailing end-of-turn
// sentinels are stripped, and anything that nets out to an empty string
// becomes the fallback message.
func ExtractAnswer(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return Fallback
	}

	answer := lines[0]
	if isEcho(answer) {
		if len(lines) < 2 {
			return Fallback
		}
		answer = lines[1]
	}

	answer = strings.TrimSpace(strings.ReplaceAll(answer, endSentinel, ""))
	if answer == "" {
		return Fallback
	}
	return answer
}

func isEcho(line string) bool {
	return strings.Contains(line, "Question:") || strings.Contains(line, "Q:")
}
