// Package catalog holds the static department and skill catalog the routing
// engine works against. The catalog is embedded into the routing prompt and
// used to normalize whatever department code the inference gateway declares.
package catalog

import (
	"encoding/json"
	"strings"
)

// DefaultDepartment absorbs anything the gateway declares that the catalog
// does not know about.
const DefaultDepartment = "general"

// Department describes one routing destination.
type Department struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
	Hours       string   `json:"hours"`
	AvgWaitTime string   `json:"avg_wait_time"`
}

var departments = []Department{
	{
		Code:        "technical_support",
		Name:        "Technical Support",
		Description: "Hardware, software, and connectivity issues",
		Keywords:    []string{"not working", "error", "connection", "setup", "install"},
		Hours:       "24/7",
		AvgWaitTime: "3 minutes",
	},
	{
		Code:        "billing",
		Name:        "Billing and Accounts",
		Description: "Account billing, payments, and charges",
		Keywords:    []string{"bill", "payment", "charge", "refund", "account"},
		Hours:       "8 AM - 8 PM",
		AvgWaitTime: "2 minutes",
	},
	{
		Code:        "sales",
		Name:        "Sales Department",
		Description: "New services, upgrades, and product information",
		Keywords:    []string{"buy", "purchase", "upgrade", "new service", "pricing"},
		Hours:       "9 AM - 6 PM",
		AvgWaitTime: "1 minute",
	},
	{
		Code:        "general",
		Name:        "General Inquiries",
		Description: "General inquiries and information",
		Keywords:    []string{"information", "hours", "location", "general"},
		Hours:       "24/7",
		AvgWaitTime: "2 minutes",
	},
	{
		Code:        "complaints",
		Name:        "Complaints and Escalations",
		Description: "Formal complaints and escalated cases",
		Hours:       "8 AM - 8 PM",
		AvgWaitTime: "4 minutes",
	},
}

var byCode = func() map[string]Department {
	m := make(map[string]Department, len(departments))
	for _, d := range departments {
		m[d.Code] = d
	}
	return m
}()

// Departments returns the full catalog in stable order.
func Departments() []Department {
	out := make([]Department, len(departments))
	copy(out, departments)
	return out
}

// Lookup returns the department for code, if known.
func Lookup(code string) (Department, bool) {
	d, ok := byCode[strings.ToLower(strings.TrimSpace(code))]
	return d, ok
}

// Normalize maps an arbitrary department code to a catalog code, falling
// back to the general department for anything unknown.
func Normalize(code string) string {
	if _, ok := Lookup(code); ok {
		return strings.ToLower(strings.TrimSpace(code))
	}
	return DefaultDepartment
}

// PromptJSON renders the catalog as indented JSON for prompt embedding.
func PromptJSON() string {
	raw, err := json.MarshalIndent(departments, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(raw)
}
