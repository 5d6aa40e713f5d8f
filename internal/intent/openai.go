package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrNoChoicesReturned indicates the completion API returned no choices.
var ErrNoChoicesReturned = errors.New("no choices returned")

// chatService defines the minimal interface for chat completions.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
}

// openaiChat adapts the OpenAI SDK service to chatService.
type openaiChat struct {
	svc openai.ChatCompletionService
}

func (a openaiChat) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := a.svc.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, err
	}
	return *resp, nil
}

// Opts holds configuration options for the OpenAI classifier.
type Opts struct {
	APIKey string
}

// Option defines a configuration option for the OpenAI classifier.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

const systemPrompt = `Você classifica mensagens de clientes de uma loja de acessórios automotivos.
Responda com exatamente uma destas etiquetas, sem mais nada:
saudacao, despedida, agradecimento, horario_funcionamento, localizacao,
catalogo_completo, orcamento_insulfim, orcamento_som, orcamento_multimidia,
orcamento_ppf, iniciar_agendamento, transferir_atendente, desconhecido`

// OpenAIClassifier asks a chat model to pick one tag from the closed
// intent set. Any failure or out-of-set answer falls back to the
// keyword classifier.
type OpenAIClassifier struct {
	chat     chatService
	fallback *KeywordClassifier
}

// NewOpenAIClassifier creates an OpenAI-backed classifier. The API key
// falls back to the OPENAI_API_KEY environment variable.
func NewOpenAIClassifier(fallback *KeywordClassifier, opts ...Option) (*OpenAIClassifier, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	if fallback == nil {
		return nil, fmt.Errorf("fallback classifier must be provided")
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &OpenAIClassifier{chat: openaiChat{svc: cli.Chat.Completions}, fallback: fallback}, nil
}

// Classify asks the model for an intent tag, constrained to the closed
// set. Errors are logged and answered by the keyword fallback so the
// chatbot never depends on the API being up.
func (c *OpenAIClassifier) Classify(ctx context.Context, message string) (Intent, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4oMini,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(message),
		},
	}
	resp, err := c.chat.Create(ctx, params)
	if err != nil {
		slog.Debug("OpenAIClassifier falling back to keywords", "error", err)
		return c.fallback.Classify(ctx, message)
	}
	if len(resp.Choices) == 0 {
		slog.Debug("OpenAIClassifier falling back to keywords", "error", ErrNoChoicesReturned)
		return c.fallback.Classify(ctx, message)
	}
	tag := strings.TrimSpace(strings.ToLower(resp.Choices[0].Message.Content))
	if it := Parse(tag); it != IntentUnknown {
		return it, nil
	}
	if tag != "desconhecido" {
		slog.Debug("OpenAIClassifier returned out-of-set tag", "tag", tag)
	}
	return c.fallback.Classify(ctx, message)
}
