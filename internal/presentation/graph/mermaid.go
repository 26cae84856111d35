package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/lodge/pkg/domain"
)

// Overlay marks dynamic session data on the graph.
type Overlay struct {
	Visited []domain.Step
	Current domain.Step
}

// GenerateMermaid renders the transition table as a Mermaid flowchart.
// Shapes:
// - Initial: ((Circle))
// - Completed: (((Double circle)))
// - Steps that ask the user something: [/Parallelogram/]
// - Default: [Rectangle]
func GenerateMermaid(edges []domain.Edge, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, step := range stepsIn(edges) {
		opener, closer := "[", "]"
		switch {
		case step == domain.StepInitial:
			opener, closer = "((", "))"
		case step.Terminal():
			opener, closer = "(((", ")))"
		case strings.HasPrefix(string(step), "Ask") || step == domain.StepEditLocation || step == domain.StepChoosePropertyType:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", step, opener, step, closer)
	}

	for _, e := range edges {
		if e.Label == "" {
			fmt.Fprintf(&sb, "    %s --> %s\n", e.From, e.To)
			continue
		}
		label := strings.ReplaceAll(e.Label, "\"", "'")
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", e.From, label, e.To)
	}

	if overlay != nil {
		sb.WriteString("\n    classDef visited fill:#e0e7ff,stroke:#6366f1\n")
		sb.WriteString("    classDef current fill:#fde68a,stroke:#d97706,stroke-width:3px\n")
		for _, step := range overlay.Visited {
			if step != overlay.Current {
				fmt.Fprintf(&sb, "    class %s visited\n", step)
			}
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current\n", overlay.Current)
		}
	}

	return sb.String()
}

// stepsIn returns every step that appears in edges, in dialog order.
func stepsIn(edges []domain.Edge) []domain.Step {
	seen := make(map[domain.Step]bool)
	for _, e := range edges {
		seen[e.From] = true
		seen[e.To] = true
	}
	out := make([]domain.Step, 0, len(seen))
	for _, s := range domain.Steps {
		if seen[s] {
			out = append(out, s)
		}
	}
	return slices.Clip(out)
}
