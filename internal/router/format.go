package router

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Jaiwincr7/rag-based-model/internal/attack"
	"github.com/Jaiwincr7/rag-based-model/internal/retrieval"
)

const auditMarker = "Audit"

var titleCaser = cases.Title(language.English)

func formatUnknownTechnique(mention string) string {
	return fmt.Sprintf("❓ Could not identify a technique for '%s' (Low Confidence).", mention)
}

func formatUnknownMitigation(mention string) string {
	return fmt.Sprintf("❓ Could not identify mitigation '%s'.", mention)
}

// formatDefenses renders the prevention list and detection section for a
// technique anchor. Mitigations named "Audit" are marked as detection
// oriented.
func formatDefenses(md attack.Metadata) string {
	var lines []string
	for _, m := range md.LinkedMitigations {
		icon := "🔒"
		if strings.Contains(m.Name, auditMarker) {
			icon = "📜"
		}
		lines = append(lines, fmt.Sprintf("   %s %s", icon, m))
	}
	if len(lines) == 0 {
		lines = append(lines, "   ⚠️ No specific M-IDs listed.")
	}

	return fmt.Sprintf("🔎 Context: %s (%s)\n🛡️ PREVENT & HARDEN (Mitigations):\n%s\n\n👁️ DETECT (Analytics):\n   %s",
		md.Name, md.MitreID, strings.Join(lines, "\n"), truncate(md.DetectionText, detectionDisplayLen))
}

func formatNoMappedTechniques(name string) string {
	return fmt.Sprintf("ℹ️ %s has no mapped techniques.", name)
}

func formatMitigatedTechniques(name string, techniques []attack.NeighborSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚔️ Techniques mitigated by %s:", name)
	for _, t := range techniques {
		fmt.Fprintf(&b, "\n   🔻 %s", t)
	}
	return b.String()
}

func formatTagged(md attack.Metadata) string {
	return fmt.Sprintf("[%s] %s", md.MitreID, md.Name)
}

func formatNoTaggedTechniques(tactic string) string {
	return fmt.Sprintf("⚠️ No techniques found explicitly tagged with '%s'.", tactic)
}

func formatTacticList(tactic string, entries []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📂 Techniques under '%s':", titleCaser.String(tactic))
	for _, e := range entries {
		fmt.Fprintf(&b, "\n   🔸 %s", e)
	}
	return b.String()
}

// formatCatalogEntry always ends the excerpt with an ellipsis.
func formatCatalogEntry(rec retrieval.Record) string {
	return fmt.Sprintf("📄 %s - %s\n   %s...", rec.Metadata.MitreID, rec.Metadata.Name, prefix(rec.Text, excerptLen))
}

func formatRejection() string {
	return "❌ No high-confidence matches found. Please specify a Tactic, ID, or valid Technique name."
}

func formatSemanticMatches(matches []attack.Metadata) string {
	var b strings.Builder
	b.WriteString("🔎 Semantic Matches:")
	for _, m := range matches {
		fmt.Fprintf(&b, "\n   💀 %s", formatTagged(m))
	}
	return b.String()
}

func formatRetrievalFailed() string {
	return "⚠️ The knowledge index is unavailable right now. Please try again."
}

// prefix returns at most n runes of s.
func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// truncate shortens s to n runes and marks the cut with an ellipsis.
func truncate(s string, n int) string {
	if p := prefix(s, n); p != s {
		return p + "..."
	}
	return s
}
