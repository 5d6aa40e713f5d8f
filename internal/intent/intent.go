// Package intent classifies free-text chat messages into a closed set of
// intents. The default classifier is keyword-based over an embedded
// intent catalog; an OpenAI-backed classifier can be layered on top and
// falls back to keywords on error.
package intent

import "context"

// Intent is a symbolic label from the closed intent set.
type Intent string

const (
	IntentUnknown         Intent = ""
	IntentGreeting        Intent = "saudacao"
	IntentFarewell        Intent = "despedida"
	IntentThanks          Intent = "agradecimento"
	IntentHours           Intent = "horario_funcionamento"
	IntentLocation        Intent = "localizacao"
	IntentFullCatalog     Intent = "catalogo_completo"
	IntentQuoteInsulfilm  Intent = "orcamento_insulfim"
	IntentQuoteSound      Intent = "orcamento_som"
	IntentQuoteMultimedia Intent = "orcamento_multimidia"
	IntentQuotePPF        Intent = "orcamento_ppf"
	IntentStartScheduling Intent = "iniciar_agendamento"
	IntentHuman           Intent = "transferir_atendente"
)

// allIntents lists every valid intent tag for validation.
var allIntents = []Intent{
	IntentGreeting, IntentFarewell, IntentThanks, IntentHours,
	IntentLocation, IntentFullCatalog, IntentQuoteInsulfilm,
	IntentQuoteSound, IntentQuoteMultimedia, IntentQuotePPF,
	IntentStartScheduling, IntentHuman,
}

// Parse returns the intent for a tag, or IntentUnknown when the tag is
// not part of the closed set.
func Parse(tag string) Intent {
	for _, it := range allIntents {
		if string(it) == tag {
			return it
		}
	}
	return IntentUnknown
}

// Category returns the product category a quote intent refers to, or ""
// for intents that do not target a category.
func (i Intent) Category() string {
	switch i {
	case IntentQuoteInsulfilm:
		return "insulfilm"
	case IntentQuoteSound:
		return "som"
	case IntentQuoteMultimedia:
		return "multimidia"
	case IntentQuotePPF:
		return "ppf"
	}
	return ""
}

// Classifier maps a raw message to an intent.
type Classifier interface {
	Classify(ctx context.Context, message string) (Intent, error)
}
