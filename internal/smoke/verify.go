package smoke

import (
	"slices"
	"strings"
)

// ExpectedTools must all be advertised by a healthy hevy server.
var ExpectedTools = []string{"get-workouts", "get-routines", "get-exercise-templates"}

// ProbeTool is the read-only tool called once the listing checks out.
const ProbeTool = "get-workouts"

// ProbeArgs asks for the smallest possible page.
func ProbeArgs() map[string]any {
	return map[string]any{"page": 1, "pageSize": 1}
}

// PreviewLength is how many characters of the probe result are printed.
const PreviewLength = 200

// MissingTools returns the entries of expected absent from advertised, in the
// order they appear in expected.
func MissingTools(expected, advertised []string) []string {
	var missing []string
	for _, name := range expected {
		if !slices.Contains(advertised, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Preview returns the first n characters of text. Multi-byte characters are
// never split.
func Preview(text string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}

func formatList(names []string) string {
	return "[" + strings.Join(names, ", ") + "]"
}
