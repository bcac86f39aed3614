package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/routing.txt
	routingRaw string

	//go:embed template/resolution.txt
	resolutionRaw string

	//go:embed template/escalation.txt
	escalationRaw string

	//go:embed template/quality.txt
	qualityRaw string

	//go:embed template/sentiment.txt
	sentimentRaw string
)

// Set holds the loaded system prompts, one per handler capability.
type Set struct {
	Routing    string
	Resolution string
	Escalation string
	Quality    string
	Sentiment  string
}

// Load returns the Set with trimmed prompt strings. Embeds are compile-time,
// so this is safe to call concurrently.
func Load() Set {
	return Set{
		Routing:    strings.TrimSpace(routingRaw),
		Resolution: strings.TrimSpace(resolutionRaw),
		Escalation: strings.TrimSpace(escalationRaw),
		Quality:    strings.TrimSpace(qualityRaw),
		Sentiment:  strings.TrimSpace(sentimentRaw),
	}
}

// Render substitutes {{name}} tokens in a prompt template.
func Render(template string, vars map[string]string) string {
	out := template
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{{"+name+"}}", value)
	}
	return out
}
