package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Client adapts the Gemini API to the pipeline's Embedder and TextGenerator
// ports.
type Client struct {
	client          *genai.Client
	embeddingModel  string
	generativeModel string
	log             *zap.Logger
}

func NewClient(ctx context.Context, apiKey, embeddingModel, generativeModel string, log *zap.Logger) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Client{
		client:          client,
		embeddingModel:  embeddingModel,
		generativeModel: generativeModel,
		log:             log,
	}, nil
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	em := c.client.EmbeddingModel(c.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

// Complete sends a single-turn prompt and returns the concatenated text
// parts of the first candidate. Empty or non-text responses are errors so
// the composer can fall back deterministically.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	model := c.client.GenerativeModel(c.generativeModel)

	maxOut := int32(maxTokens)
	temp := temperature
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: &maxOut,
		Temperature:     &temp,
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation request failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response had no candidates")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		} else {
			c.log.Debug("skipping non-text response part", zap.String("type", fmt.Sprintf("%T", part)))
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("gemini response contained no text parts")
	}
	return out.String(), nil
}
