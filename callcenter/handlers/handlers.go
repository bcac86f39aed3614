// Package handlers implements the three call handlers: the routing decision
// engine, the front-line resolution handler, and the supervisor escalation
// handler. Each is a stateless function of (history, utterance) over the
// inference gateway; all session state lives in the registry.
package handlers

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/contract"
	storex "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/store"
)

// Handler ids as they appear in the persistent call log.
const (
	RoutingHandlerID    = "routing_agent"
	ResolutionHandlerID = "cs_agent"
	EscalationHandlerID = "supervisor_agent"
	SystemHandlerID     = "system"
)

func lastN(history []contractx.Message, n int) []contractx.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func renderHistory(history []contractx.Message) string {
	if len(history) == 0 {
		return "New call"
	}
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		origin := string(msg.Origin)
		if msg.Origin == contractx.OriginHandler && msg.HandlerID != "" {
			origin = msg.HandlerID
		}
		lines = append(lines, fmt.Sprintf("%s: %s", origin, msg.Content))
	}
	return strings.Join(lines, "\n")
}

func renderLogEntries(entries []storex.CallLogEntry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("%s: %s", entry.EntryType, entry.Content))
	}
	return strings.Join(lines, "\n")
}

func clampPriority(priority int) int {
	if priority < 1 {
		return 2
	}
	if priority > 4 {
		return 4
	}
	return priority
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
