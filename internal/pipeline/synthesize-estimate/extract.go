// internal/pipeline/synthesize-estimate/extract.go
package synthesizeestimate

// extractJSONObject locates the first balanced JSON object in free text.
// Generative responses often wrap the payload in prose or code fences, so
// the whole body cannot be assumed to be clean JSON. Braces inside string
// literals and escape sequences are skipped.
func extractJSONObject(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}

	return "", false
}
