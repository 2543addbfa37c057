// Package expert defines the closed registry of advanced-computing domain
// experts and the system prompts that drive them. The registry is immutable
// after init; the swarm orchestrator and the coordinator both resolve expert
// selections against it.
package expert

import (
	"fmt"
	"strings"
)

// Definition describes one domain expert: its short registry key, the agent
// name it runs under inside a swarm, and the full system prompt.
type Definition struct {
	Key          string
	Name         string
	SystemPrompt string
}

// Registry keys, in canonical order.
const (
	KeyHPC      = "hpc"
	KeyQuantum  = "quantum"
	KeyGenAI    = "genai"
	KeyVisual   = "visual"
	KeySpatial  = "spatial"
	KeyIoT      = "iot"
	KeyPartners = "partners"
)

var registry = []Definition{
	{Key: KeyHPC, Name: "hpc_expert", SystemPrompt: hpcPrompt},
	{Key: KeyQuantum, Name: "quantum_expert", SystemPrompt: quantumPrompt},
	{Key: KeyGenAI, Name: "genai_expert", SystemPrompt: genaiPrompt},
	{Key: KeyVisual, Name: "visual_expert", SystemPrompt: visualPrompt},
	{Key: KeySpatial, Name: "spatial_expert", SystemPrompt: spatialPrompt},
	{Key: KeyIoT, Name: "iot_expert", SystemPrompt: iotPrompt},
	{Key: KeyPartners, Name: "partners_expert", SystemPrompt: partnersPrompt},
}

var byKey = func() map[string]Definition {
	m := make(map[string]Definition, len(registry))
	for _, d := range registry {
		m[d.Key] = d
	}
	return m
}()

// All returns every expert definition in canonical registry order. The
// returned slice is a copy; callers may reorder it freely.
func All() []Definition {
	out := make([]Definition, len(registry))
	copy(out, registry)
	return out
}

// Get looks up a definition by registry key.
func Get(key string) (Definition, bool) {
	d, ok := byKey[key]
	return d, ok
}

// Keys returns the registry keys in canonical order.
func Keys() []string {
	keys := make([]string, len(registry))
	for i, d := range registry {
		keys[i] = d.Key
	}
	return keys
}

// AvailableKeys renders the canonical key list for user-facing messages,
// e.g. "hpc, quantum, genai, visual, spatial, iot, partners".
func AvailableKeys() string {
	return strings.Join(Keys(), ", ")
}

// ParseSelection parses a comma-separated expert selection. Keys are
// lowercased and trimmed; unknown keys are dropped silently; duplicates are
// collapsed to their first occurrence; the caller's order is preserved.
func ParseSelection(csv string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, raw := range strings.Split(csv, ",") {
		key := strings.ToLower(strings.TrimSpace(raw))
		if key == "" || seen[key] {
			continue
		}
		if _, ok := byKey[key]; !ok {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

// TeamPrompt extends an expert's system prompt with the roster for one
// consultation. Every expert sees the full team and is told to hand off to
// each remaining teammate by name.
func TeamPrompt(d Definition, teamNames []string) string {
	return d.SystemPrompt + fmt.Sprintf(
		"\n\n**YOUR TEAM FOR THIS CONSULTATION:** %s\n**CRITICAL:** After your analysis, explicitly hand off to EACH remaining team member by name.",
		strings.Join(teamNames, ", "))
}
