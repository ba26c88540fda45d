package splitter

import (
	"strings"
	"testing"

	"github.com/chatta-ai/chatta/internal/document"
)

func mdDoc(text string, meta map[string]any) document.Document {
	return document.Document{Text: text, Metadata: meta}
}

func TestMarkdown_SplitsOnHeadings(t *testing.T) {
	m := NewMarkdown("##", false)
	text := "## Features\n- fast\n- small\n## Order Information\n- Model: X-1\n"

	nodes := m.GetNodes([]document.Document{mdDoc(text, nil)})
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if !strings.HasPrefix(nodes[0].Text, "## Features") {
		t.Errorf("first node = %q", nodes[0].Text)
	}
	if !strings.HasPrefix(nodes[1].Text, "## Order Information") {
		t.Errorf("second node = %q", nodes[1].Text)
	}
}

func TestMarkdown_EveryNodeStartsWithSeparator(t *testing.T) {
	m := NewMarkdown("##", false)
	inputs := []string{
		"preamble text\n## A\nbody\n### deeper\n## B\nbody",
		"## only\ncontent",
		"noise without any heading at all",
		"#single\n##double\n###triple\n####quad",
		"",
	}
	for _, input := range inputs {
		for _, n := range m.GetNodes([]document.Document{mdDoc(input, nil)}) {
			if !strings.HasPrefix(strings.TrimSpace(n.Text), "##") {
				t.Errorf("input %q produced node not starting with separator: %q", input, n.Text)
			}
		}
	}
}

func TestMarkdown_NoHeadingMeansNoNodes(t *testing.T) {
	m := NewMarkdown("##", false)
	nodes := m.GetNodes([]document.Document{
		mdDoc("plain paragraph\nwith lines but no headings", nil),
		mdDoc("### only deeper headings here\ntext", nil),
		mdDoc("#### even deeper\nstill noise", nil),
	})
	if len(nodes) != 0 {
		t.Fatalf("expected no nodes, got %d", len(nodes))
	}
}

func TestMarkdown_DeepHeadingOpeningIsDropped(t *testing.T) {
	m := NewMarkdown("##", false)
	text := "### Electrical\nvolts before any section\n## Specs\nreal content"

	nodes := m.GetNodes([]document.Document{mdDoc(text, nil)})
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	if !strings.HasPrefix(nodes[0].Text, "## Specs") {
		t.Errorf("node = %q, want the ## section only", nodes[0].Text)
	}
	if strings.Contains(nodes[0].Text, "### Electrical") {
		t.Errorf("deep-heading preamble leaked into node: %q", nodes[0].Text)
	}
}

func TestMarkdown_DoesNotSplitOnDeeperHeadings(t *testing.T) {
	m := NewMarkdown("##", false)
	text := "## Specs\n### Electrical\nvolts\n#### Pins\nmore\n## Contact Information\nmail"

	nodes := m.GetNodes([]document.Document{mdDoc(text, nil)})
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if !strings.Contains(nodes[0].Text, "### Electrical") {
		t.Errorf("deeper heading should stay inside its section: %q", nodes[0].Text)
	}
}

func TestMarkdown_DropsPreamble(t *testing.T) {
	m := NewMarkdown("##", false)
	text := "Let's process the messy information step by step.\n\n## Contact Information\n- mail"

	nodes := m.GetNodes([]document.Document{mdDoc(text, nil)})
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	if strings.Contains(nodes[0].Text, "messy information") {
		t.Errorf("preamble leaked into node: %q", nodes[0].Text)
	}
}

func TestMarkdown_TaggingPrefixesBaseName(t *testing.T) {
	m := NewMarkdown("##", true)
	meta := map[string]any{
		document.MetaPDFPath:  "/data/sheets/EGPS-3401_Datasheet.pdf",
		document.MetaFileName: "EGPS-3401_Datasheet.pdf",
		document.MetaPrivacy:  document.PrivacyPublic,
	}

	nodes := m.GetNodes([]document.Document{mdDoc("## Features\n- four ports", meta)})
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	want := "EGPS-3401_Datasheet.pdf\n## Features"
	if !strings.HasPrefix(nodes[0].Text, want) {
		t.Errorf("node text = %q, want prefix %q", nodes[0].Text, want)
	}
}

func TestMarkdown_NodesInheritMetadata(t *testing.T) {
	m := NewMarkdown("##", false)
	meta := map[string]any{document.MetaPrivacy: document.PrivacyPrivate, document.MetaFileName: "a.pdf"}

	nodes := m.GetNodes([]document.Document{mdDoc("## A\nx\n## B\ny", meta)})
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	for i, n := range nodes {
		if n.Metadata[document.MetaPrivacy] != document.PrivacyPrivate {
			t.Errorf("node %d lost privacy metadata", i)
		}
	}
	// Metadata must be a copy, not a shared map.
	nodes[0].Metadata["extra"] = true
	if _, ok := nodes[1].Metadata["extra"]; ok {
		t.Error("nodes share one metadata map")
	}
}
