// Package modules provides the built-in Lab modules and the YAML catalog
// loader for user-defined labs. Each module renders a registered prompt
// template and calls the generation capability; prior turns reach it only
// through the context string the executor injects.
package modules

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/creatorlab/labengine/internal/model"
	"github.com/creatorlab/labengine/internal/provider"
	"github.com/creatorlab/labengine/internal/registry"
	"github.com/creatorlab/labengine/internal/template"
)

// videoPollInterval is how often an in-flight video operation is checked.
const videoPollInterval = 5 * time.Second

// promptVars builds the substitution map for a module's template: the
// caller's content, the injected conversation context, and any string
// options the caller supplied.
func promptVars(in model.ModuleInput) map[string]string {
	vars := map[string]string{
		"content": in.Content,
		"context": in.Context,
	}
	for k, v := range in.Options {
		if s, ok := v.(string); ok {
			vars[k] = s
		}
	}
	return vars
}

func stringOption(in model.ModuleInput, key, def string) string {
	if v, ok := in.Options[key].(string); ok && v != "" {
		return v
	}
	return def
}

// TextLab builds a text module that renders templateID and generates text.
func TextLab(id, name, templateID, system string, ts *template.Service, gen provider.Generator, caps []string) model.ModuleDefinition {
	return model.ModuleDefinition{
		ID:           id,
		Name:         name,
		Type:         model.TypeText,
		Capabilities: caps,
		Config:       map[string]any{"template": templateID},
		Execute: func(ctx context.Context, in model.ModuleInput) (*model.ModuleOutput, error) {
			prompt, err := ts.Render(templateID, promptVars(in))
			if err != nil {
				return nil, err
			}
			text, err := gen.GenerateText(ctx, prompt, provider.TextOptions{System: system})
			if err != nil {
				return nil, err
			}
			return &model.ModuleOutput{
				Success:  true,
				Content:  text,
				Type:     model.OutputText,
				Metadata: map[string]any{"module": id},
			}, nil
		},
	}
}

// ImageLab builds an image module. The aspect_ratio option defaults to 16:9.
func ImageLab(id, name, templateID string, ts *template.Service, gen provider.Generator) model.ModuleDefinition {
	return model.ModuleDefinition{
		ID:           id,
		Name:         name,
		Type:         model.TypeImage,
		Capabilities: []string{"image-generation"},
		Config:       map[string]any{"template": templateID},
		Execute: func(ctx context.Context, in model.ModuleInput) (*model.ModuleOutput, error) {
			prompt, err := ts.Render(templateID, promptVars(in))
			if err != nil {
				return nil, err
			}
			aspect := stringOption(in, "aspect_ratio", "16:9")
			img, err := gen.GenerateImage(ctx, prompt, aspect)
			if err != nil {
				return nil, err
			}
			if img == nil {
				return nil, fmt.Errorf("no image returned")
			}
			return &model.ModuleOutput{
				Success: true,
				Content: "generated 1 image",
				Type:    model.OutputImage,
				Data:    map[string]any{"image_base64": base64.StdEncoding.EncodeToString(img)},
				Metadata: map[string]any{
					"module":       id,
					"aspect_ratio": aspect,
				},
			}, nil
		},
	}
}

// VideoLab builds a video module that starts a generation and polls the
// operation until it finishes or the invocation is cancelled.
func VideoLab(id, name, templateID string, ts *template.Service, gen provider.Generator) model.ModuleDefinition {
	return model.ModuleDefinition{
		ID:           id,
		Name:         name,
		Type:         model.TypeVideo,
		Capabilities: []string{"video-generation"},
		Config:       map[string]any{"template": templateID},
		Execute: func(ctx context.Context, in model.ModuleInput) (*model.ModuleOutput, error) {
			prompt, err := ts.Render(templateID, promptVars(in))
			if err != nil {
				return nil, err
			}

			opts := provider.VideoOptions{
				AspectRatio:     stringOption(in, "aspect_ratio", "9:16"),
				DurationSeconds: 8,
			}
			op, err := gen.GenerateVideo(ctx, prompt, opts)
			if err != nil {
				return nil, err
			}

			video, err := awaitVideo(ctx, gen, op)
			if err != nil {
				return nil, err
			}
			return &model.ModuleOutput{
				Success: true,
				Content: "generated 1 video",
				Type:    model.OutputVideo,
				Data:    map[string]any{"video_base64": base64.StdEncoding.EncodeToString(video)},
				Metadata: map[string]any{
					"module":       id,
					"operation":    op.Name,
					"aspect_ratio": opts.AspectRatio,
				},
			}, nil
		},
	}
}

// awaitVideo polls immediately, then on the ticker, so an operation that is
// already done never waits out an interval.
func awaitVideo(ctx context.Context, gen provider.Generator, op *provider.VideoOperation) ([]byte, error) {
	ticker := time.NewTicker(videoPollInterval)
	defer ticker.Stop()
	for {
		video, done, err := gen.PollVideo(ctx, op)
		if err != nil {
			return nil, err
		}
		if done {
			if video == nil {
				return nil, fmt.Errorf("video operation %s finished without output", op.Name)
			}
			return video, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ResearchLab builds a text module grounded in web search; the cited
// sources land in the output's structured data.
func ResearchLab(id, name, templateID string, ts *template.Service, gen provider.Generator) model.ModuleDefinition {
	return model.ModuleDefinition{
		ID:           id,
		Name:         name,
		Type:         model.TypeText,
		Capabilities: []string{"search", "grounding"},
		Config:       map[string]any{"template": templateID},
		Execute: func(ctx context.Context, in model.ModuleInput) (*model.ModuleOutput, error) {
			query, err := ts.Render(templateID, promptVars(in))
			if err != nil {
				return nil, err
			}
			result, err := gen.Search(ctx, query)
			if err != nil {
				return nil, err
			}
			return &model.ModuleOutput{
				Success:  true,
				Content:  result.Text,
				Type:     model.OutputText,
				Data:     map[string]any{"sources": result.Sources},
				Metadata: map[string]any{"module": id},
			}, nil
		},
	}
}

// RegisterBuiltins registers the default templates and Lab modules.
func RegisterBuiltins(reg *registry.Registry, ts *template.Service, gen provider.Generator) {
	for _, t := range defaultTemplates {
		ts.Register(t)
	}

	reg.Register(TextLab("script-coach", "Script Coach", "script_coach",
		"You are an experienced video script editor. Be specific and direct.",
		ts, gen, []string{"coaching", "long-form"}))
	reg.Register(TextLab("hook-writer", "Hook Writer", "hook_writer",
		"You write opening hooks that stop the scroll.",
		ts, gen, []string{"short-form", "hooks"}))
	reg.Register(TextLab("title-lab", "Title Lab", "title_lab",
		"You are a click-through-rate specialist for video titles.",
		ts, gen, []string{"titles", "packaging"}))
	reg.Register(ImageLab("thumbnail-lab", "Thumbnail Lab", "thumbnail_lab", ts, gen))
	reg.Register(VideoLab("teaser-lab", "Teaser Lab", "teaser_lab", ts, gen))
	reg.Register(ResearchLab("research-lab", "Research Lab", "research_lab", ts, gen))
}

var defaultTemplates = []model.PromptTemplate{
	{
		ID: "script_coach",
		Content: `Previous conversation:
{{context}}

Review this video script draft and give concrete feedback on structure,
pacing, and retention. Rewrite the weakest section.

Script:
{{content}}`,
		Variables: []string{"context", "content"},
	},
	{
		ID: "hook_writer",
		Content: `Previous conversation:
{{context}}

Write 5 opening hooks (max 2 sentences each) for this video idea. Vary the
angle: curiosity, contrarian, stakes, story, and data.

Idea: {{content}}`,
		Variables: []string{"context", "content"},
	},
	{
		ID: "title_lab",
		Content: `Previous conversation:
{{context}}

Suggest 8 titles for this video, under 60 characters each, with a one-line
note on the psychology behind each.

Video: {{content}}`,
		Variables: []string{"context", "content"},
	},
	{
		ID: "thumbnail_lab",
		Content: `A bold, high-contrast video thumbnail, no text overlay: {{content}}`,
		Variables: []string{"content"},
	},
	{
		ID: "teaser_lab",
		Content: `A punchy vertical teaser clip for social media: {{content}}`,
		Variables: []string{"content"},
	},
	{
		ID: "research_lab",
		Content: `What is the current audience interest, recent coverage, and notable
creators for this topic: {{content}}`,
		Variables: []string{"content"},
	},
}
