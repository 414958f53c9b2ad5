package judge

import (
	"fmt"
	"strings"
)

// Language IDs are fixed by the execution engine's catalog.
var languageIDs = map[string]int{
	"c++":        54,
	"java":       62,
	"javascript": 63,
}

// LanguageID resolves a language name to the execution engine's numeric ID.
// An unknown name is a ConfigurationError raised before any network call.
func LanguageID(language string) (int, error) {
	name := strings.ToLower(strings.TrimSpace(language))
	if name == "cpp" {
		name = "c++"
	}

	id, ok := languageIDs[name]
	if !ok {
		return 0, &ConfigurationError{Reason: fmt.Sprintf("unsupported language: %q", language)}
	}
	return id, nil
}
