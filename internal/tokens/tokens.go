// Package tokens counts language-model tokens and compares two renderings of
// the same data by token cost.
package tokens

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/mcncl/toonkit/internal/errors"
)

// DefaultModel selects the cl100k vocabulary.
const DefaultModel = "gpt-4"

// The BPE files are embedded so counting never touches the network.
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Tokenizer turns text into token ids.
type Tokenizer interface {
	Tokenize(text string) ([]int, error)
}

// Tiktoken is a Tokenizer backed by a tiktoken BPE vocabulary. The vocabulary
// is loaded on first use.
type Tiktoken struct {
	model    string
	encoding string

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// NewTiktoken returns a tokenizer for the vocabulary used by model.
func NewTiktoken(model string) *Tiktoken {
	if model == "" {
		model = DefaultModel
	}
	return &Tiktoken{model: model}
}

// NewTiktokenEncoding returns a tokenizer for a named encoding such as
// "cl100k_base" or "o200k_base".
func NewTiktokenEncoding(name string) *Tiktoken {
	return &Tiktoken{encoding: name}
}

func (t *Tiktoken) load() {
	if t.encoding != "" {
		t.enc, t.err = tiktoken.GetEncoding(t.encoding)
		return
	}
	t.enc, t.err = tiktoken.EncodingForModel(t.model)
}

// Tokenize encodes text. Special-token markers in the text are rejected by
// the encoder with a panic, which callers are expected to recover from.
func (t *Tiktoken) Tokenize(text string) ([]int, error) {
	t.once.Do(t.load)
	if t.err != nil {
		name := t.encoding
		if name == "" {
			name = t.model
		}
		return nil, errors.NewUpstreamError(errors.KindTokenizer, fmt.Sprintf("load vocabulary for %s", name), t.err)
	}
	return t.enc.Encode(text, nil, []string{"all"}), nil
}

// Comparison scores a baseline text against a candidate. The field names
// follow the usual JSON-versus-TOON comparison; JSONTokens always counts the
// baseline and ToonTokens the candidate.
type Comparison struct {
	JSONTokens      int     `json:"jsonTokens"`
	ToonTokens      int     `json:"toonTokens"`
	SavedTokens     int     `json:"savedTokens"`
	SavedPercentage float64 `json:"savedPercentage"`
}

// Counter counts tokens without ever failing. A tokenizer fault is logged and
// counted as zero.
type Counter struct {
	tokenizer Tokenizer
	logger    *log.Logger
}

// NewCounter wraps tokenizer. A nil logger discards fault reports.
func NewCounter(tokenizer Tokenizer, logger *log.Logger) *Counter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Counter{tokenizer: tokenizer, logger: logger}
}

// Count returns the number of tokens in text, or 0 if the tokenizer fails.
func (c *Counter) Count(text string) (n int) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("tokenizer panic: %v", r)
			n = 0
		}
	}()

	ids, err := c.tokenizer.Tokenize(text)
	if err != nil {
		c.logger.Printf("tokenizer error: %v", err)
		return 0
	}
	return len(ids)
}

// Compare counts both texts. SavedTokens is baseline minus candidate and may
// be negative; SavedPercentage is relative to the baseline and 0 when the
// baseline has no tokens.
func (c *Counter) Compare(baseline, candidate string) Comparison {
	a := c.Count(baseline)
	b := c.Count(candidate)

	cmp := Comparison{JSONTokens: a, ToonTokens: b, SavedTokens: a - b}
	if a > 0 {
		cmp.SavedPercentage = float64(cmp.SavedTokens) / float64(a) * 100
	}
	return cmp
}
