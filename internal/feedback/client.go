// Package feedback forwards user ratings of generated answers to an
// external trace store as span annotations. Nothing is persisted locally.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Annotation labels.
const (
	LabelThumbsUp   = "thumbs-up"
	LabelThumbsDown = "thumbs-down"
)

// Result is the rating attached to a span.
type Result struct {
	Label       string  `json:"label"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// Annotation ties a rating to the generation span it judges.
type Annotation struct {
	SpanID        string         `json:"span_id"`
	Name          string         `json:"name"`
	AnnotatorKind string         `json:"annotator_kind"`
	Result        Result         `json:"result"`
	Metadata      map[string]any `json:"metadata"`
}

// Validate checks the annotation has a span id and a known label.
func (a Annotation) Validate() error {
	if a.SpanID == "" {
		return fmt.Errorf("span_id is empty")
	}
	switch a.Result.Label {
	case LabelThumbsUp, LabelThumbsDown:
		return nil
	default:
		return fmt.Errorf("unknown label %q", a.Result.Label)
	}
}

// annotationRequest is the trace store's batch envelope.
type annotationRequest struct {
	Data []Annotation `json:"data"`
}

// Client submits span annotations to a trace store over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client targeting the trace store's base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// DefaultName is the annotation name used when the caller supplies none.
const DefaultName = "user feedback"

// Annotate submits one annotation asynchronously (the store acknowledges
// before indexing). The name defaults to DefaultName and the annotator kind
// is normalized to upper case.
func (c *Client) Annotate(ctx context.Context, ann Annotation) error {
	if err := ann.Validate(); err != nil {
		return fmt.Errorf("invalid annotation: %w", err)
	}
	if ann.Name == "" {
		ann.Name = DefaultName
	}
	if ann.AnnotatorKind == "" {
		ann.AnnotatorKind = "HUMAN"
	}
	ann.AnnotatorKind = strings.ToUpper(ann.AnnotatorKind)

	body, err := json.Marshal(annotationRequest{Data: []Annotation{ann}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/span_annotations?sync=false", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating annotation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submitting annotation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("annotation rejected: status %d", resp.StatusCode)
	}
	return nil
}
