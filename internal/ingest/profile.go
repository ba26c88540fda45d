package ingest

import (
	"fmt"

	"github.com/chatta-ai/chatta/internal/model"
	"github.com/chatta-ai/chatta/internal/splitter"
)

// Profile names accepted by ProfileByName.
const (
	ProfileDefault = "default"
	ProfileAI      = "ai"
)

// Profile pairs a page extraction mode with the splitter that understands
// its output. The pairing is fixed: AI-normalized Markdown must go through
// the markdown splitter, plain extracted text through the sentence
// splitter.
type Profile struct {
	Name     string
	Splitter splitter.NodeSplitter
	reformat Reformatter
}

// DefaultProfile extracts plain page text and chunks it by sentence.
func DefaultProfile() Profile {
	return Profile{
		Name:     ProfileDefault,
		Splitter: splitter.NewSentence(splitter.DefaultChunkSize, splitter.DefaultChunkOverlap),
	}
}

// AIProfile reformats every page into Markdown through the generator and
// splits the result at section headings, tagging each node with its source
// document name.
func AIProfile(generator model.TextGenerator) Profile {
	return Profile{
		Name:     ProfileAI,
		Splitter: splitter.NewMarkdown(splitter.DefaultSeparator, true),
		reformat: NewMarkdownReformatter(generator),
	}
}

// ProfileByName resolves a profile name from configuration. The generator
// is only used by the "ai" profile.
func ProfileByName(name string, generator model.TextGenerator) (Profile, error) {
	switch name {
	case ProfileDefault, "":
		return DefaultProfile(), nil
	case ProfileAI:
		return AIProfile(generator), nil
	default:
		return Profile{}, fmt.Errorf("unknown ingestion profile %q", name)
	}
}
