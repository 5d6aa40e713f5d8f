package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
)

func TestKeywordClassify(t *testing.T) {
	c, err := NewKeywordClassifier()
	if err != nil {
		t.Fatalf("NewKeywordClassifier failed: %v", err)
	}

	cases := []struct {
		message string
		want    Intent
	}{
		{"Oi, tudo bem?", IntentGreeting},
		{"bom dia", IntentGreeting},
		{"quanto custa insulfilm?", IntentQuoteInsulfilm},
		{"quero ver som automotivo", IntentQuoteSound},
		{"tem central multimídia?", IntentQuoteMultimedia},
		{"quero um orçamento de ppf", IntentQuotePPF},
		{"quero agendar instalação", IntentStartScheduling},
		{"qual o horário de funcionamento?", IntentHours},
		{"onde fica a loja?", IntentLocation},
		{"me mostra o catálogo", IntentFullCatalog},
		{"quero falar com atendente", IntentHuman},
		{"xyzzy frobnicate", IntentUnknown},
		{"", IntentUnknown},
	}
	for _, tc := range cases {
		got, err := c.Classify(context.Background(), tc.message)
		if err != nil {
			t.Errorf("Classify(%q) error: %v", tc.message, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestKeywordResponses(t *testing.T) {
	c, err := NewKeywordClassifier()
	if err != nil {
		t.Fatalf("NewKeywordClassifier failed: %v", err)
	}
	if resp := c.Response(IntentGreeting); resp == "" {
		t.Error("expected canned response for greeting")
	}
	// Action intents carry no canned response; their handlers answer.
	if resp := c.Response(IntentQuoteSound); resp != "" {
		t.Errorf("expected empty response for quote intent, got %q", resp)
	}
}

func TestIntentCategory(t *testing.T) {
	cases := map[Intent]string{
		IntentQuoteInsulfilm:  "insulfilm",
		IntentQuoteSound:      "som",
		IntentQuoteMultimedia: "multimidia",
		IntentQuotePPF:        "ppf",
		IntentGreeting:        "",
		IntentStartScheduling: "",
	}
	for it, want := range cases {
		if got := it.Category(); got != want {
			t.Errorf("%q.Category() = %q, want %q", it, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	if Parse("saudacao") != IntentGreeting {
		t.Error("expected saudacao tag to parse")
	}
	if Parse("nao_existe") != IntentUnknown {
		t.Error("expected unknown tag to map to IntentUnknown")
	}
}

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp openai.ChatCompletion
	err  error
}

func (m *mockChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	return m.resp, m.err
}

func TestOpenAIClassify_Success(t *testing.T) {
	kw, _ := NewKeywordClassifier()
	mockResp := openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "orcamento_som"}},
		},
	}
	c := &OpenAIClassifier{chat: &mockChatService{resp: mockResp}, fallback: kw}
	got, err := c.Classify(context.Background(), "quero um som novo")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if got != IntentQuoteSound {
		t.Errorf("Classify = %q, want %q", got, IntentQuoteSound)
	}
}

func TestOpenAIClassify_FallsBackOnError(t *testing.T) {
	kw, _ := NewKeywordClassifier()
	c := &OpenAIClassifier{chat: &mockChatService{err: errors.New("service failure")}, fallback: kw}
	got, err := c.Classify(context.Background(), "quanto custa insulfilm?")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if got != IntentQuoteInsulfilm {
		t.Errorf("expected keyword fallback to classify, got %q", got)
	}
}

func TestOpenAIClassify_FallsBackOnOutOfSetTag(t *testing.T) {
	kw, _ := NewKeywordClassifier()
	mockResp := openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "alguma_coisa_inventada"}},
		},
	}
	c := &OpenAIClassifier{chat: &mockChatService{resp: mockResp}, fallback: kw}
	got, err := c.Classify(context.Background(), "bom dia")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if got != IntentGreeting {
		t.Errorf("expected fallback classification, got %q", got)
	}
}

func TestNewOpenAIClassifier_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	kw, _ := NewKeywordClassifier()
	if _, err := NewOpenAIClassifier(kw); err == nil {
		t.Error("expected error when API key not provided")
	}
}
