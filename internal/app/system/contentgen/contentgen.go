// Package contentgen talks to Gemini to draft activity descriptions and
// suggest interest tags. Generation is strictly best-effort: any error or
// timeout degrades to empty output so activity creation never blocks on
// the model.
package contentgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/goalpeer/goalpeer/internal/app/system/timeouts"
)

const modelName = "gemini-1.5-flash"

// Generator wraps the Gemini client. A nil *Generator is valid and
// produces empty output, so callers do not branch on whether an API key
// was configured.
type Generator struct {
	client *genai.Client
	logger *zap.Logger
}

// New builds a Generator. An empty API key returns (nil, nil):
// generation disabled.
func New(ctx context.Context, apiKey string, logger *zap.Logger) (*Generator, error) {
	if apiKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("contentgen: %w", err)
	}
	logger.Info("content generation enabled", zap.String("model", modelName))
	return &Generator{client: client, logger: logger}, nil
}

// Close releases the client.
func (g *Generator) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

// DraftDescription asks the model for a short activity description based
// on the activity name. Returns "" when generation is disabled or fails.
func (g *Generator) DraftDescription(ctx context.Context, name string) string {
	if g == nil || g.client == nil {
		return ""
	}
	prompt := fmt.Sprintf(
		"Write a short, motivating description (2-3 sentences, plain text, no markdown) "+
			"for an accountability group activity named %q. The group's members set shared "+
			"goals and verify each other's progress.", name)

	out, err := g.generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("description draft failed", zap.String("activity", name), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(out)
}

// SuggestInterests picks up to three tags from the given catalog that fit
// the activity. The model answers with a comma-separated list; anything
// outside the catalog is dropped. Returns nil when generation is disabled
// or fails.
func (g *Generator) SuggestInterests(ctx context.Context, name, description string, catalog []string) []string {
	if g == nil || g.client == nil || len(catalog) == 0 {
		return nil
	}
	prompt := fmt.Sprintf(
		"Pick at most 3 tags from this list that best match the activity below. "+
			"Answer with a comma-separated list of tags only, or NONE.\n"+
			"Tags: %s\nActivity name: %s\nActivity description: %s",
		strings.Join(catalog, ", "), name, description)

	out, err := g.generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("interest suggestion failed", zap.String("activity", name), zap.Error(err))
		return nil
	}
	return matchCatalog(out, catalog)
}

func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.AI())
	defer cancel()

	model := g.client.GenerativeModel(modelName)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String(), nil
}

// matchCatalog filters the model's comma-separated answer against the
// catalog, case-insensitively, preserving catalog spelling and capping
// the result at three tags.
func matchCatalog(answer string, catalog []string) []string {
	byFold := make(map[string]string, len(catalog))
	for _, c := range catalog {
		byFold[strings.ToLower(strings.TrimSpace(c))] = c
	}

	var picked []string
	seen := make(map[string]struct{})
	for _, raw := range strings.Split(answer, ",") {
		key := strings.ToLower(strings.TrimSpace(raw))
		canonical, ok := byFold[key]
		if !ok {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		picked = append(picked, canonical)
		if len(picked) == 3 {
			break
		}
	}
	return picked
}
