// Package ingest reads source PDFs and turns them into documents ready for
// splitting and embedding. Extraction behavior is selected by a Profile:
// plain per-page text, or AI-assisted normalization into Markdown.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/chatta-ai/chatta/internal/document"
)

// Pipeline walks a source folder and produces one Document per PDF page.
type Pipeline struct {
	profile Profile
	logger  *slog.Logger
}

// NewPipeline creates a Pipeline for the given profile. logger may be nil.
func NewPipeline(profile Profile, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{profile: profile, logger: logger}
}

// Profile returns the pipeline's profile, whose splitter consumes the
// documents Run produces.
func (p *Pipeline) Profile() Profile {
	return p.profile
}

// Run recursively enumerates PDFs under folder and extracts one Document
// per page. The privacy flag applies uniformly to the whole batch: 0 when
// private, 1 otherwise. Any extraction or reformatting failure aborts the
// batch; a partially ingested corpus is worse than a retried one.
func (p *Pipeline) Run(ctx context.Context, folder string, private bool) ([]document.Document, error) {
	privacy := document.PrivacyPublic
	if private {
		privacy = document.PrivacyPrivate
	}

	var paths []string
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", folder, err)
	}

	var docs []document.Document
	for _, path := range paths {
		pages, err := extractPages(path)
		if err != nil {
			return nil, err
		}
		p.logger.Info("extracted pdf", "path", path, "pages", len(pages))

		for i, text := range pages {
			if p.profile.reformat != nil {
				text, err = p.profile.reformat.Reformat(ctx, text)
				if err != nil {
					return nil, fmt.Errorf("reformatting page %d of %s: %w", i+1, path, err)
				}
			}
			docs = append(docs, document.Document{
				Text: text,
				Metadata: map[string]any{
					document.MetaFileName:   filepath.Base(path),
					document.MetaPrivacy:    privacy,
					document.MetaPDFPath:    path,
					document.MetaPageNumber: i + 1,
				},
			})
		}
	}
	return docs, nil
}
