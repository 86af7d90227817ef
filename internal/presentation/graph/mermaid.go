package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/rewind/pkg/domain"
)

// Overlay contains trajectory data to visualize on the graph.
type Overlay struct {
	Executed []string
	// Focus highlights one node, e.g. the subject of a rollback preview.
	Focus string
	// Affected marks the nodes a rollback would remove from history.
	Affected []string
}

// GenerateMermaid renders the dependency graph as a Mermaid flowchart.
// Aggregate nodes are drawn as hexagons; nodes with no edges still appear.
// The overlay, if any, styles executed, affected and focus nodes.
func GenerateMermaid(cfg *domain.Config, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, id := range cfg.Nodes() {
		safeID := sanitizeMermaidID(id)
		opener, closer := "[", "]"
		if cfg.IsAggregate(id) {
			opener, closer = "{{", "}}"
		}
		label := id
		if n := len(cfg.Produces(id)); n > 0 {
			label = fmt.Sprintf("%s <br/> %d fields", id, n)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)
	}

	for _, from := range cfg.Nodes() {
		for _, to := range cfg.Graph[from] {
			fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(from), sanitizeMermaidID(to))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills in both themes.
		sb.WriteString("    classDef executed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef affected fill:#ffebee,stroke:#c62828,stroke-width:2px,stroke-dasharray:4,color:#000;\n")
		sb.WriteString("    classDef focus fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		writeClass(&sb, "executed", overlay.Executed)
		writeClass(&sb, "affected", overlay.Affected)
		if overlay.Focus != "" {
			writeClass(&sb, "focus", []string{overlay.Focus})
		}
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, class string, ids []string) {
	seen := make(map[string]bool)
	for _, id := range ids {
		safeID := sanitizeMermaidID(id)
		if safeID == "" || seen[safeID] {
			continue
		}
		seen[safeID] = true
		fmt.Fprintf(sb, "    class %s %s;\n", safeID, class)
	}
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
