package ai

import "strings"

// DefaultModel is used whenever the caller supplies no model or an
// unrecognized one. Unknown values are never rejected.
const DefaultModel = "gemini-1.5-flash"

var allowedModels = map[string]struct{}{
	"gemini-1.5-pro":   {},
	"gemini-1.5-flash": {},
}

// NormalizeModel maps a caller-supplied model id onto the allow-list,
// silently falling back to DefaultModel.
func NormalizeModel(model string) string {
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	if _, ok := allowedModels[model]; ok {
		return model
	}
	return DefaultModel
}
