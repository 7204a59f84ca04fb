package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/forPelevin/clipline/internal/ports"
)

const CredentialKey = "GEMINI_API_KEY"

type Adapter struct {
	creds       ports.Credentials
	temperature float32
	baseURL     string
}

func New(creds ports.Credentials, temperature float32, baseURL string) *Adapter {
	return &Adapter{creds: creds, temperature: temperature, baseURL: strings.TrimSpace(baseURL)}
}

// Generate sends prompt to model. API errors keep the provider's code and
// status text (e.g. "503 UNAVAILABLE") so callers can classify them.
func (a *Adapter) Generate(ctx context.Context, model, prompt string) (string, error) {
	key, err := a.creds.Lookup(CredentialKey)
	if err != nil {
		return "", fmt.Errorf("gemini credentials: %w", err)
	}

	cc := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if a.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: a.baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}

	temp := a.temperature
	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: &temp,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate (model=%s): %w", model, err)
	}

	text := responseText(result)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response from Gemini API")
	}
	return text, nil
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
