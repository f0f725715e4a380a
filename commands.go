package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/mcncl/toonkit/internal/analyzer"
	"github.com/mcncl/toonkit/internal/converter"
	"github.com/mcncl/toonkit/internal/errors"
	"github.com/mcncl/toonkit/internal/models"
	"github.com/mcncl/toonkit/internal/pricing"
	"github.com/mcncl/toonkit/internal/tokens"
)

// ConvertCmd converts a document from one format to another
type ConvertCmd struct {
	From         string `help:"Source format (json, toon, csv, yaml, xml). Inferred from the input file extension when omitted." short:"f"`
	To           string `help:"Target format (json, toon, csv, yaml, xml)." short:"t" required:""`
	Input        string `help:"Path to input file. If not specified, reads from stdin." short:"i" type:"path"`
	Output       string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	Stats        bool   `help:"Print token counts for the input and output to stderr." short:"s"`
	Indent       int    `help:"JSON indent width, 0 for compact output. Negative keeps the configured value." default:"-1"`
	RootTag      string `help:"XML root element name."`
	ItemTag      string `help:"XML array item element name."`
	LengthMarker bool   `help:"Write TOON array lengths as [#N]."`
}

func (c *ConvertCmd) Run(ctx *Context) error {
	from, err := resolveFormat(c.From, c.Input, converter.JSON)
	if err != nil {
		return err
	}
	to, err := converter.ParseFormat(c.To)
	if err != nil {
		return err
	}

	if c.Indent >= 0 {
		ctx.Config.JSON.Indent = c.Indent
	}
	if c.LengthMarker {
		ctx.Config.Toon.LengthMarker = true
	}
	conv := ctx.converter(converter.WithXMLTags(c.RootTag, c.ItemTag))

	text, err := ctx.readInput(c.Input)
	if err != nil {
		return err
	}
	if ctx.Debug {
		if tree, err := conv.Decode(from, text); err == nil {
			ctx.dump("decoded "+from.String(), tree)
		}
	}

	if !c.Stats {
		out, err := conv.Convert(from, text, to)
		if err != nil {
			return err
		}
		return ctx.writeOutput(c.Output, out)
	}

	res, err := conv.ConvertWithStats(from, text, to)
	if err != nil {
		return err
	}
	if err := ctx.writeOutput(c.Output, res.Output); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Stderr, "Tokens: %d %s -> %d %s (saved %d, %.1f%%)\n",
		res.Tokens.JSONTokens, from, res.Tokens.ToonTokens, to, res.Tokens.SavedTokens, res.Tokens.SavedPercentage)
	return nil
}

// TokensCmd counts tokens in a document and compares it with its TOON rendering
type TokensCmd struct {
	From  string `help:"Input format. Inferred from the input file extension, defaults to json." short:"f"`
	Input string `help:"Path to input file. If not specified, reads from stdin." short:"i" type:"path"`
	Raw   bool   `help:"Print only the token count of the input as given."`
	JSON  bool   `help:"Print the comparison as JSON."`
}

func (c *TokensCmd) Run(ctx *Context) error {
	text, err := ctx.readInput(c.Input)
	if err != nil {
		return err
	}

	if c.Raw {
		counter := tokens.NewCounter(ctx.tokenizer(), ctx.Logger)
		fmt.Fprintln(ctx.Stdout, counter.Count(text))
		return nil
	}

	cmp, err := compareWithToon(ctx.converter(), c.From, c.Input, text)
	if err != nil {
		return err
	}

	if c.JSON {
		out, err := json.MarshalIndent(cmp, "", "  ")
		if err != nil {
			return errors.NewOutputError("failed to encode comparison", err)
		}
		return ctx.writeOutput("", string(out))
	}

	w := tabwriter.NewWriter(ctx.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Input tokens:\t%d\n", cmp.JSONTokens)
	fmt.Fprintf(w, "TOON tokens:\t%d\n", cmp.ToonTokens)
	fmt.Fprintf(w, "Saved:\t%d (%.1f%%)\n", cmp.SavedTokens, cmp.SavedPercentage)
	return w.Flush()
}

// compareWithToon counts text against its TOON rendering
func compareWithToon(conv *converter.Converter, format, path, text string) (tokens.Comparison, error) {
	from, err := resolveFormat(format, path, converter.JSON)
	if err != nil {
		return tokens.Comparison{}, err
	}
	res, err := conv.ConvertWithStats(from, text, converter.TOON)
	if err != nil {
		return tokens.Comparison{}, err
	}
	return res.Tokens, nil
}

// CostCmd prices a document or a token count
type CostCmd struct {
	Tokens int     `help:"Token count to price. When omitted, the input document is counted." short:"n"`
	Price  float64 `help:"Price in USD per million tokens. When omitted, the model's input price from the pricing feed is used." short:"p"`
	Model  string  `help:"Model id to price against. Defaults to the configured pricing model." short:"m"`
	From   string  `help:"Input format. Inferred from the input file extension, defaults to json." short:"f"`
	Input  string  `help:"Path to input file. If not specified, reads from stdin." short:"i" type:"path"`
}

func (c *CostCmd) Run(ctx *Context) error {
	model, err := c.model(ctx)
	if err != nil {
		return err
	}

	if c.Tokens > 0 {
		amount := pricing.Cost(float64(c.Tokens), model.Input)
		return ctx.writeOutput("", pricing.FormatCurrency(amount))
	}

	text, err := ctx.readInput(c.Input)
	if err != nil {
		return err
	}
	cmp, err := compareWithToon(ctx.converter(), c.From, c.Input, text)
	if err != nil {
		return err
	}
	b := pricing.NewBreakdown(cmp, model)

	w := tabwriter.NewWriter(ctx.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Model:\t%s\t$%g / 1M input tokens\n", modelLabel(model), model.Input)
	fmt.Fprintf(w, "Input:\t%d tokens\t%s\n", cmp.JSONTokens, pricing.FormatCurrency(b.JSONCost))
	fmt.Fprintf(w, "TOON:\t%d tokens\t%s\n", cmp.ToonTokens, pricing.FormatCurrency(b.ToonCost))
	fmt.Fprintf(w, "Saved:\t%d tokens (%.1f%%)\t%s\n", cmp.SavedTokens, cmp.SavedPercentage, pricing.FormatCurrency(b.Savings))
	fmt.Fprintf(w, "At scale (%d requests):\t%s -> %s\tsaves %s\n", pricing.ScaleRequests,
		pricing.FormatCurrency(b.JSONCostAtScale), pricing.FormatCurrency(b.ToonCostAtScale), pricing.FormatCurrency(b.SavingsAtScale))
	return w.Flush()
}

// model returns the price to apply: an explicit --price, or the feed's entry
func (c *CostCmd) model(ctx *Context) (pricing.Model, error) {
	if c.Price > 0 {
		return pricing.Model{ID: "custom", Name: "custom", Input: c.Price}, nil
	}

	id := c.Model
	if id == "" {
		id = ctx.Config.Pricing.Model
	}
	data := ctx.feed().Fetch(context.Background())
	m, ok := data.Find(id)
	if !ok {
		return pricing.Model{}, errors.NewInputError("", fmt.Sprintf("unknown model %q; run 'toonkit models' to list available models", id), nil)
	}
	return m, nil
}

func modelLabel(m pricing.Model) string {
	if m.Vendor == "" {
		return m.Name
	}
	return fmt.Sprintf("%s (%s)", m.Name, m.Vendor)
}

// ModelsCmd lists prices from the pricing feed
type ModelsCmd struct {
	Search  string `help:"Only show models whose name, vendor or id contains this text." short:"s"`
	Sort    string `help:"Sort column: featured, input, output or name." enum:"featured,input,output,name" default:"featured"`
	Desc    bool   `help:"Sort in descending order."`
	Popular bool   `help:"Only show featured models."`
	Limit   int    `help:"Maximum number of models to show, 0 for all." default:"50"`
	Format  string `help:"Output format (json, toon, csv, yaml, xml)." default:"toon"`
}

func (c *ModelsCmd) Run(ctx *Context) error {
	format, err := converter.ParseFormat(c.Format)
	if err != nil {
		return err
	}

	data := ctx.feed().Fetch(context.Background())
	list := pricing.Ordered(data.Prices)
	if c.Popular {
		list = pricing.Popular(data)
	}
	list = pricing.Filter(list, c.Search)
	if c.Sort != "featured" {
		list = pricing.Sort(list, pricing.SortKey(c.Sort), c.Desc)
	}
	if c.Limit > 0 && len(list) > c.Limit {
		ctx.Logger.Printf("showing %d of %d models", c.Limit, len(list))
		list = list[:c.Limit]
	}
	if len(list) == 0 {
		return errors.NewInputError("", fmt.Sprintf("no models match %q", c.Search), nil)
	}

	out, err := ctx.converter().Encode(modelsTree(list), format)
	if err != nil {
		return err
	}
	return ctx.writeOutput("", out)
}

// modelsTree lays out models as records so every format can render them
func modelsTree(list []pricing.Model) models.Value {
	rows := make([]models.Value, len(list))
	for i, m := range list {
		cached := models.Null()
		if m.InputCached != nil {
			cached = models.Number(*m.InputCached)
		}
		rows[i] = models.ObjectOf(
			models.F("id", models.String(m.ID)),
			models.F("vendor", models.String(m.Vendor)),
			models.F("name", models.String(m.Name)),
			models.F("input", models.Number(m.Input)),
			models.F("output", models.Number(m.Output)),
			models.F("input_cached", cached),
		)
	}
	return models.Array(rows...)
}

// InspectCmd describes a document's structure
type InspectCmd struct {
	From  string `help:"Input format. Inferred from the input file extension, defaults to json." short:"f"`
	Input string `help:"Path to input file. If not specified, reads from stdin." short:"i" type:"path"`
}

func (c *InspectCmd) Run(ctx *Context) error {
	from, err := resolveFormat(c.From, c.Input, converter.JSON)
	if err != nil {
		return err
	}
	text, err := ctx.readInput(c.Input)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return errors.NewInputError(errors.KindEmptyInput, "Please enter some data to inspect", nil)
	}

	tree, err := ctx.converter().Decode(from, text)
	if err != nil {
		return err
	}
	ctx.dump("decoded "+from.String(), tree)

	shape := analyzer.NewAnalyzer().Analyze(tree)
	w := tabwriter.NewWriter(ctx.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Format:\t%s\n", from)
	fmt.Fprintf(w, "Root:\t%s\n", shape.Kind)
	fmt.Fprintf(w, "Depth:\t%d\n", shape.Depth)
	fmt.Fprintf(w, "Values:\t%d scalars, %d containers\n", shape.Scalars, shape.Containers)
	if shape.Kind == models.KindArray {
		fmt.Fprintf(w, "Rows:\t%d\n", shape.Rows)
		fmt.Fprintf(w, "CSV compatible:\t%t\n", shape.Records)
		fmt.Fprintf(w, "Tabular:\t%t\n", shape.Tabular)
		if shape.Tabular {
			fmt.Fprintf(w, "Columns:\t%s\n", strings.Join(shape.Columns, ", "))
		}
	}
	return w.Flush()
}
