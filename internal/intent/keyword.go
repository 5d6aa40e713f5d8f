package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	_ "embed"
)

//go:embed intents.json
var intentsData []byte

type intentEntry struct {
	Tag       string   `json:"tag"`
	Patterns  []string `json:"patterns"`
	Responses []string `json:"responses"`
}

type intentCatalog struct {
	Intents []intentEntry `json:"intents"`
}

// KeywordClassifier scores messages against the pattern bag of each
// intent in the embedded catalog and picks the best match.
type KeywordClassifier struct {
	patterns  map[Intent][][]string
	responses map[Intent][]string
}

// NewKeywordClassifier parses the embedded intent catalog.
func NewKeywordClassifier() (*KeywordClassifier, error) {
	var catalog intentCatalog
	if err := json.Unmarshal(intentsData, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse intent catalog: %w", err)
	}
	c := &KeywordClassifier{
		patterns:  make(map[Intent][][]string),
		responses: make(map[Intent][]string),
	}
	for _, entry := range catalog.Intents {
		it := Parse(entry.Tag)
		if it == IntentUnknown {
			slog.Warn("KeywordClassifier: skipping unknown intent tag", "tag", entry.Tag)
			continue
		}
		for _, p := range entry.Patterns {
			c.patterns[it] = append(c.patterns[it], tokenize(p))
		}
		c.responses[it] = entry.Responses
	}
	return c, nil
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "ã", "a", "â", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "õ", "o", "ô", "o",
	"ú", "u", "ü", "u",
	"ç", "c",
)

// tokenize lowercases, strips accents and punctuation, and splits into
// words.
func tokenize(s string) []string {
	s = accentReplacer.Replace(strings.ToLower(s))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

// Classify returns the best-scoring intent for the message, or
// IntentUnknown when nothing matches.
func (c *KeywordClassifier) Classify(ctx context.Context, message string) (Intent, error) {
	words := tokenize(message)
	if len(words) == 0 {
		return IntentUnknown, nil
	}
	bag := make(map[string]bool, len(words))
	for _, w := range words {
		bag[w] = true
	}

	best := IntentUnknown
	bestScore := 0
	for it, patterns := range c.patterns {
		for _, pattern := range patterns {
			matched := 0
			for _, w := range pattern {
				if bag[w] {
					matched++
				}
			}
			// Every word of the pattern must appear; longer patterns win.
			if matched == len(pattern) && matched > bestScore {
				best = it
				bestScore = matched
			}
		}
	}
	return best, nil
}

// Response returns a canned response for the intent, or "" when the
// intent has none (action intents are answered by their handlers).
func (c *KeywordClassifier) Response(it Intent) string {
	responses := c.responses[it]
	if len(responses) == 0 {
		return ""
	}
	return responses[rand.Intn(len(responses))]
}
