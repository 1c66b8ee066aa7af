package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/creatorlab/labengine/internal/logging"
)

// Models used when the caller does not override them.
const (
	DefaultTextModel  = "gemini-2.0-flash"
	DefaultImageModel = "imagen-3.0-generate-002"
	DefaultVideoModel = "veo-2.0-generate-001"
)

// Gemini implements Generator against the Google GenAI API.
// The underlying client is created lazily on first use.
type Gemini struct {
	apiKey     string
	textModel  string
	imageModel string
	videoModel string
	client     *genai.Client
}

// GeminiOption configures a Gemini generator.
type GeminiOption func(*Gemini)

// WithTextModel overrides the text model.
func WithTextModel(m string) GeminiOption { return func(g *Gemini) { g.textModel = m } }

// WithImageModel overrides the image model.
func WithImageModel(m string) GeminiOption { return func(g *Gemini) { g.imageModel = m } }

// WithVideoModel overrides the video model.
func WithVideoModel(m string) GeminiOption { return func(g *Gemini) { g.videoModel = m } }

// NewGemini creates a Gemini generator. The client connects on first call,
// not here, so construction never touches the network.
func NewGemini(apiKey string, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		apiKey:     apiKey,
		textModel:  DefaultTextModel,
		imageModel: DefaultImageModel,
		videoModel: DefaultVideoModel,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gemini) init(ctx context.Context) error {
	if g.client != nil {
		return nil
	}
	if g.apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: g.apiKey})
	if err != nil {
		return fmt.Errorf("create genai client: %w", err)
	}
	g.client = client
	logging.Debug("gemini client initialized")
	return nil
}

func (g *Gemini) GenerateText(ctx context.Context, prompt string, opts TextOptions) (string, error) {
	if err := g.init(ctx); err != nil {
		return "", err
	}

	model := opts.Model
	if model == "" {
		model = g.textModel
	}

	config := &genai.GenerateContentConfig{}
	if opts.System != "" {
		config.SystemInstruction = genai.NewContentFromText(opts.System, genai.RoleUser)
	}
	if opts.Temperature != nil {
		temp := float32(*opts.Temperature)
		config.Temperature = &temp
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	result, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini text request failed: %w", err)
	}

	text := collectText(result)
	logging.Debug("gemini text response", "model", model, "length", len(text))
	return text, nil
}

func (g *Gemini) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error) {
	if err := g.init(ctx); err != nil {
		return nil, err
	}

	config := &genai.GenerateImagesConfig{NumberOfImages: 1}
	if aspectRatio != "" {
		config.AspectRatio = aspectRatio
	}

	result, err := g.client.Models.GenerateImages(ctx, g.imageModel, prompt, config)
	if err != nil {
		return nil, fmt.Errorf("gemini image request failed: %w", err)
	}
	if len(result.GeneratedImages) == 0 || result.GeneratedImages[0].Image == nil {
		return nil, nil
	}
	return result.GeneratedImages[0].Image.ImageBytes, nil
}

func (g *Gemini) GenerateVideo(ctx context.Context, prompt string, opts VideoOptions) (*VideoOperation, error) {
	if err := g.init(ctx); err != nil {
		return nil, err
	}

	model := opts.Model
	if model == "" {
		model = g.videoModel
	}

	config := &genai.GenerateVideosConfig{NumberOfVideos: 1}
	if opts.AspectRatio != "" {
		config.AspectRatio = opts.AspectRatio
	}
	if opts.DurationSeconds > 0 {
		d := int32(opts.DurationSeconds)
		config.DurationSeconds = &d
	}

	op, err := g.client.Models.GenerateVideos(ctx, model, prompt, nil, config)
	if err != nil {
		return nil, fmt.Errorf("gemini video request failed: %w", err)
	}

	logging.Debug("gemini video operation started", "name", op.Name)
	return &VideoOperation{Name: op.Name, op: op}, nil
}

func (g *Gemini) PollVideo(ctx context.Context, handle *VideoOperation) ([]byte, bool, error) {
	if err := g.init(ctx); err != nil {
		return nil, false, err
	}

	op, ok := handle.op.(*genai.GenerateVideosOperation)
	if !ok {
		return nil, false, fmt.Errorf("video operation %s: not a gemini handle", handle.Name)
	}

	op, err := g.client.Operations.GetVideosOperation(ctx, op, nil)
	if err != nil {
		return nil, false, fmt.Errorf("gemini video poll failed: %w", err)
	}
	handle.op = op

	if !op.Done {
		return nil, false, nil
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return nil, true, nil
	}
	return op.Response.GeneratedVideos[0].Video.VideoBytes, true, nil
}

func (g *Gemini) Search(ctx context.Context, query string) (*SearchResult, error) {
	if err := g.init(ctx); err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	contents := []*genai.Content{genai.NewContentFromText(query, genai.RoleUser)}

	result, err := g.client.Models.GenerateContent(ctx, g.textModel, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini search request failed: %w", err)
	}

	out := &SearchResult{Text: collectText(result)}
	for _, candidate := range result.Candidates {
		if candidate.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			out.Sources = append(out.Sources, Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
		}
	}
	return out, nil
}

// collectText concatenates the text parts of a response, skipping thought
// parts when the model emits them.
func collectText(result *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text == "" || part.Thought {
				continue
			}
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
