// ABOUTME: Gemini implementation of the decision Provider
// ABOUTME: Calls the Google GenAI SDK and maps its failures onto transport error kinds
package decision

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/genai"
)

// Rough list prices per million tokens for flash-class models.
const (
	inputCostPerMillion  = 0.30
	outputCostPerMillion = 2.50
)

// GeminiProvider generates completions with Google's Gemini API.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiProvider creates a Gemini-backed provider.
func NewGeminiProvider(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiProvider{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Invoke sends one prompt.
func (g *GeminiProvider) Invoke(ctx context.Context, req Request) (Response, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Hints[HintFormat] == FormatJSON {
		config.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	latency := time.Since(start)
	if err != nil {
		return Response{Latency: latency}, classifyGenAIError(ctx, err)
	}

	resp := Response{
		Text:    result.Text(),
		Latency: latency,
	}
	if result.UsageMetadata != nil {
		resp.CostEstimate = float64(result.UsageMetadata.PromptTokenCount)*inputCostPerMillion/1e6 +
			float64(result.UsageMetadata.CandidatesTokenCount)*outputCostPerMillion/1e6
	}
	if resp.Text == "" {
		return resp, &TransportError{Kind: KindOther, Err: fmt.Errorf("empty response from %s", g.model)}
	}
	return resp, nil
}

// Name returns the provider name.
func (g *GeminiProvider) Name() string {
	return fmt.Sprintf("gemini:%s", g.model)
}

func classifyGenAIError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &TransportError{Kind: KindFromStatus(apiErr.Code), Status: apiErr.Code, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return &TransportError{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Kind: KindTimeout, Err: err}
	}
	return &TransportError{Kind: KindOther, Err: err}
}
