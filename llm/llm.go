// Package llm talks to hosted language model APIs. The client is picked
// by whichever API key is present in the environment, in the same order
// the Python original used: OpenAI, Anthropic, Azure OpenAI.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrNoClient is returned by consumers when no API key was configured.
var ErrNoClient = errors.New("no llm client configured")

type Client interface {
	// Complete sends a system and a user prompt and returns the model's text.
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

// Options come from the llm section of the application config.
// All fields are optional.
type Options struct {
	Provider string // force a provider instead of key-based selection
	Model    string
	BaseURL  string
}

// NewFromEnv selects a client based on environment API keys.
// A nil client with a nil error means no key is set; the server
// still runs, tool calls fail until a key is provided.
func NewFromEnv(opts Options) (Client, error) {
	openaiKey := os.Getenv("OPENAI_API_KEY")
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	azureKey := os.Getenv("AZURE_OPENAI_API_KEY")

	switch opts.Provider {
	case "":
	case "openai":
		if openaiKey == "" {
			return nil, errors.New("provider 'openai' requires OPENAI_API_KEY")
		}
		return NewOpenAI(openaiKey, opts), nil
	case "anthropic":
		if anthropicKey == "" {
			return nil, errors.New("provider 'anthropic' requires ANTHROPIC_API_KEY")
		}
		return NewAnthropic(anthropicKey, opts), nil
	case "azure":
		if azureKey == "" {
			return nil, errors.New("provider 'azure' requires AZURE_OPENAI_API_KEY")
		}
		return NewAzureOpenAI(azureKey, opts)
	default:
		return nil, fmt.Errorf("unknown llm provider '%s'", opts.Provider)
	}

	switch {
	case openaiKey != "":
		return NewOpenAI(openaiKey, opts), nil
	case anthropicKey != "":
		return NewAnthropic(anthropicKey, opts), nil
	case azureKey != "":
		return NewAzureOpenAI(azureKey, opts)
	}
	return nil, nil
}
