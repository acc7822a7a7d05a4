package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const azureAPIVersion = "2024-02-15-preview"

// AzureOpenAI speaks the same chat completions dialect as OpenAI but
// addresses a deployment under the customer's endpoint.
type AzureOpenAI struct {
	client     *http.Client
	apiKey     string
	endpoint   string
	deployment string
}

func NewAzureOpenAI(apiKey string, opts Options) (*AzureOpenAI, error) {
	endpoint := opts.BaseURL
	if endpoint == "" {
		endpoint = os.Getenv("AZURE_OPENAI_ENDPOINT")
	}
	deployment := opts.Model
	if deployment == "" {
		deployment = os.Getenv("AZURE_OPENAI_DEPLOYMENT")
	}
	if endpoint == "" {
		return nil, errors.New("azure openai requires AZURE_OPENAI_ENDPOINT")
	}
	if deployment == "" {
		return nil, errors.New("azure openai requires AZURE_OPENAI_DEPLOYMENT")
	}
	return &AzureOpenAI{
		client:     &http.Client{Timeout: 2 * time.Minute},
		apiKey:     apiKey,
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		deployment: deployment,
	}, nil
}

func (c *AzureOpenAI) Name() string { return "azure" }

func (c *AzureOpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: c.deployment,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, c.deployment, azureAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := doWithRetry(c.client, req)
	if err != nil {
		return "", fmt.Errorf("azure openai request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeChatResponse(resp)
}
