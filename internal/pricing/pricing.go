// Package pricing turns token counts into money. Prices are USD per million
// tokens, as published by the price feed.
package pricing

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mcncl/toonkit/internal/tokens"
)

// ScaleRequests is the request volume used for at-scale estimates.
const ScaleRequests = 1_000_000

// Model is one priced model from the feed.
type Model struct {
	ID          string   `json:"id"`
	Vendor      string   `json:"vendor"`
	Name        string   `json:"name"`
	Input       float64  `json:"input"`
	Output      float64  `json:"output"`
	InputCached *float64 `json:"input_cached"`
}

// Data is a price list as served by the feed.
type Data struct {
	UpdatedAt string  `json:"updated_at"`
	Prices    []Model `json:"prices"`
}

// Find returns the model with the given id.
func (d Data) Find(id string) (Model, bool) {
	for _, m := range d.Prices {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// PopularModels are featured ahead of everything else, in this order.
var PopularModels = []string{
	"gpt-5.1",
	"gpt-5",
	"claude-sonnet-4.5",
	"gemini-2.5-pro-preview-03-25",
	"gemini-2.5-flash",
	"grok-4",
	"gpt-4o",
	"gpt-4o-mini",
	"o1-preview",
	"o1-mini",
	"o1-pro",
	"gpt-4-turbo",
	"gpt-4.1",
	"gpt-4.1-mini",
	"claude-opus-4",
	"claude-3.5-sonnet",
	"claude-3.5-haiku",
	"claude-4.5-haiku",
	"gemini-2.0-flash",
	"gemini-1.5-pro",
	"gemini-1.5-flash",
	"grok-4-fast",
	"grok-3",
	"deepseek-chat",
	"deepseek-reasoner",
	"amazon-nova-pro",
	"amazon-nova-lite",
	"amazon-nova-micro",
}

// Cost prices tokenCount tokens at pricePerMillion.
func Cost(tokenCount, pricePerMillion float64) float64 {
	return tokenCount / 1_000_000 * pricePerMillion
}

var exponent = regexp.MustCompile(`e([+-])0*(\d)`)

// FormatCurrency renders a dollar amount with precision chosen by magnitude:
// $0.00 for zero, exponent notation below 0.0001, then 6, 4 or 2 decimals.
func FormatCurrency(amount float64) string {
	switch {
	case amount == 0:
		return "$0.00"
	case amount < 0.0001:
		return "$" + exponent.ReplaceAllString(fmt.Sprintf("%.2e", amount), "e$1$2")
	case amount < 0.01:
		return fmt.Sprintf("$%.6f", amount)
	case amount < 1:
		return fmt.Sprintf("$%.4f", amount)
	}
	return fmt.Sprintf("$%.2f", amount)
}

// FallbackData is served when the feed cannot be reached.
func FallbackData(now time.Time) Data {
	cached := 0.125
	return Data{
		UpdatedAt: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Prices: []Model{{
			ID:          "gpt-5.1",
			Vendor:      "openai",
			Name:        "GPT-5.1",
			Input:       1.25,
			Output:      10.0,
			InputCached: &cached,
		}},
	}
}

// Dedupe drops models whose id was already seen, keeping the first.
func Dedupe(models []Model) []Model {
	seen := make(map[string]struct{}, len(models))
	out := make([]Model, 0, len(models))
	for _, m := range models {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func popularRank() map[string]int {
	rank := make(map[string]int, len(PopularModels))
	for i, id := range PopularModels {
		rank[id] = i
	}
	return rank
}

// Popular returns the featured models present in data, in PopularModels order.
func Popular(data Data) []Model {
	rank := popularRank()
	var out []Model
	for _, m := range data.Prices {
		if _, ok := rank[m.ID]; ok {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].ID] < rank[out[j].ID]
	})
	return out
}

// Ordered lists every model with the featured ones first, the rest by vendor
// then name.
func Ordered(models []Model) []Model {
	rank := popularRank()
	out := append([]Model(nil), models...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iPopular := rank[out[i].ID]
		rj, jPopular := rank[out[j].ID]
		switch {
		case iPopular && jPopular:
			return ri < rj
		case iPopular != jPopular:
			return iPopular
		case out[i].Vendor != out[j].Vendor:
			return compareText(out[i].Vendor, out[j].Vendor) < 0
		}
		return compareText(out[i].Name, out[j].Name) < 0
	})
	return out
}

// Filter keeps models whose name, vendor or id contains term, ignoring case.
// A blank term keeps everything.
func Filter(models []Model, term string) []Model {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return models
	}
	var out []Model
	for _, m := range models {
		if strings.Contains(strings.ToLower(m.Name), term) ||
			strings.Contains(strings.ToLower(m.Vendor), term) ||
			strings.Contains(strings.ToLower(m.ID), term) {
			out = append(out, m)
		}
	}
	return out
}

// SortKey selects the column Sort orders by.
type SortKey string

const (
	ByInput  SortKey = "input"
	ByOutput SortKey = "output"
	ByName   SortKey = "name"
)

// Sort returns models ordered by key, descending when desc is set. Ties keep
// their input order.
func Sort(models []Model, key SortKey, desc bool) []Model {
	out := append([]Model(nil), models...)
	sort.SliceStable(out, func(i, j int) bool {
		var c int
		switch key {
		case ByOutput:
			c = compareFloat(out[i].Output, out[j].Output)
		case ByName:
			c = compareText(out[i].Name, out[j].Name)
		default:
			c = compareFloat(out[i].Input, out[j].Input)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareText(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Breakdown is the input-price cost of a token comparison for one model,
// per request and at ScaleRequests requests.
type Breakdown struct {
	Model           Model   `json:"model"`
	JSONCost        float64 `json:"jsonCost"`
	ToonCost        float64 `json:"toonCost"`
	Savings         float64 `json:"savings"`
	JSONCostAtScale float64 `json:"jsonCostAtScale"`
	ToonCostAtScale float64 `json:"toonCostAtScale"`
	SavingsAtScale  float64 `json:"savingsAtScale"`
}

// NewBreakdown prices cmp at m's input rate.
func NewBreakdown(cmp tokens.Comparison, m Model) Breakdown {
	price := func(n int, requests float64) float64 {
		return Cost(float64(n)*requests, m.Input)
	}
	return Breakdown{
		Model:           m,
		JSONCost:        price(cmp.JSONTokens, 1),
		ToonCost:        price(cmp.ToonTokens, 1),
		Savings:         price(cmp.SavedTokens, 1),
		JSONCostAtScale: price(cmp.JSONTokens, ScaleRequests),
		ToonCostAtScale: price(cmp.ToonTokens, ScaleRequests),
		SavingsAtScale:  price(cmp.SavedTokens, ScaleRequests),
	}
}

