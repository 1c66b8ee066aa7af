// Package provider defines the generation capability boundary and its
// Gemini implementation. The engine treats every provider failure
// uniformly as a module execution failure; no retries happen here.
package provider

import "context"

// TextOptions tune a text generation call.
type TextOptions struct {
	Model       string
	System      string
	Temperature *float64
	MaxTokens   int
}

// VideoOptions tune a video generation call.
type VideoOptions struct {
	Model           string
	AspectRatio     string
	DurationSeconds int
}

// VideoOperation is an opaque handle for an in-progress video generation.
type VideoOperation struct {
	Name string

	op any // provider-internal operation state
}

// SearchResult is a grounded answer with its cited sources.
type SearchResult struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources,omitempty"`
}

// Source is one citation backing a search result.
type Source struct {
	Title string `json:"title,omitempty"`
	URI   string `json:"uri"`
}

// Generator is the external generation capability consumed by modules.
// Implementations must observe ctx cancellation on every network call.
type Generator interface {
	// GenerateText produces text for a prompt.
	GenerateText(ctx context.Context, prompt string, opts TextOptions) (string, error)

	// GenerateImage produces image bytes, or nil when the provider
	// returns no image.
	GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error)

	// GenerateVideo starts a video generation and returns its handle.
	GenerateVideo(ctx context.Context, prompt string, opts VideoOptions) (*VideoOperation, error)

	// PollVideo checks an operation; done reports completion and video
	// holds the bytes once available.
	PollVideo(ctx context.Context, op *VideoOperation) (video []byte, done bool, err error)

	// Search answers a query grounded in web search.
	Search(ctx context.Context, query string) (*SearchResult, error)
}
