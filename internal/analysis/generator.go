package analysis

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

// Generator sends a composed prompt to a language model and returns the
// model's text response.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VertexConfig selects the Gemini model served by Vertex AI.
type VertexConfig struct {
	Project         string  `toml:"project"`
	Location        string  `toml:"location"`
	Model           string  `toml:"model"`
	Temperature     float32 `toml:"temperature"`
	MaxOutputTokens int32   `toml:"max_output_tokens"`
	CredentialsFile string  `toml:"credentials_file"`
}

// Vertex is a Generator backed by Vertex AI Gemini.
type Vertex struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewVertex opens a Vertex AI client. Credentials come from CredentialsFile
// when set and from Application Default Credentials otherwise.
func NewVertex(ctx context.Context, cfg VertexConfig) (*Vertex, error) {
	if cfg.Project == "" || cfg.Location == "" {
		return nil, fmt.Errorf("vertex: project and location required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, cfg.Project, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("vertex client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	if cfg.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(cfg.MaxOutputTokens)
	}
	model.ResponseMIMEType = "application/json"

	return &Vertex{client: client, model: model}, nil
}

func (v *Vertex) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := v.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func (v *Vertex) Close() error {
	return v.client.Close()
}
