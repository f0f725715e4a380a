package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/davecgh/go-spew/spew"

	"github.com/mcncl/toonkit/internal/config"
	"github.com/mcncl/toonkit/internal/converter"
	"github.com/mcncl/toonkit/internal/errors"
	"github.com/mcncl/toonkit/internal/models"
	"github.com/mcncl/toonkit/internal/pricing"
	"github.com/mcncl/toonkit/internal/tokens"
	"github.com/mcncl/toonkit/internal/toon"
)

// Version information
const (
	Version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Config  string           `help:"Path to a config file. Defaults to the nearest .toonkit.yml." short:"c" type:"path"`
	Debug   bool             `help:"Enable debug logging and dump decoded data." short:"d"`
	Version kong.VersionFlag `help:"Show version information." short:"v"`

	Convert ConvertCmd `cmd:"" help:"Convert data between json, toon, csv, yaml and xml."`
	Tokens  TokensCmd  `cmd:"" help:"Count tokens and compare a document with its TOON rendering."`
	Cost    CostCmd    `cmd:"" help:"Estimate what a document costs to send to a model."`
	Models  ModelsCmd  `cmd:"" help:"List model prices from the pricing feed."`
	Inspect InspectCmd `cmd:"" help:"Describe the shape of a document."`
}

// Context holds the runtime context shared by every command
type Context struct {
	Config *config.Config
	Logger *log.Logger
	Debug  bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		// Use our custom error handling to provide user-friendly error messages
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: toonkit --help\n")
		os.Exit(1)
	}
}

// run parses args and executes the selected command
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("toonkit"),
		kong.Description("Convert structured data to and from TOON and measure the tokens it saves."),
		kong.UsageOnError(),
		kong.Vars{"version": Version},
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		return err
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return errors.NewInputError("", err.Error(), err)
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	debug := cli.Debug || cfg.Dev.Debug

	ctx := &Context{
		Config: cfg,
		Logger: log.New(stderr, "toonkit: ", 0),
		Debug:  debug,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}
	if debug {
		ctx.Logger.Printf("config: %s", spew.Sdump(cfg))
	}
	return kctx.Run(ctx)
}

// converter builds a Converter from the config, with opts applied last
func (c *Context) converter(opts ...converter.Option) *converter.Converter {
	cfg := c.Config
	base := []converter.Option{
		converter.WithJSONIndent(cfg.JSON.Indent),
		converter.WithXMLTags(cfg.XML.RootTag, cfg.XML.ItemTag),
		converter.WithCodec(toon.New(
			toon.WithIndent(cfg.Toon.Indent),
			toon.WithLengthMarkers(cfg.Toon.LengthMarker),
		)),
		converter.WithCounter(tokens.NewCounter(c.tokenizer(), c.Logger)),
	}
	return converter.New(append(base, opts...)...)
}

func (c *Context) tokenizer() tokens.Tokenizer {
	if c.Config.Tokens.Encoding != "" {
		return tokens.NewTiktokenEncoding(c.Config.Tokens.Encoding)
	}
	return tokens.NewTiktoken(c.Config.Tokens.Model)
}

func (c *Context) feed() *pricing.Feed {
	opts := []pricing.FeedOption{
		pricing.WithTimeout(c.Config.Pricing.Timeout),
		pricing.WithLogger(c.Logger),
	}
	if cache, err := pricing.NewLRUCache(c.Config.Pricing.CacheSize); err == nil {
		opts = append(opts, pricing.WithCache(cache))
	}
	return pricing.NewFeed(c.Config.Pricing.URL, opts...)
}

// dump writes a tree to stderr when debugging
func (c *Context) dump(label string, v models.Value) {
	if !c.Debug {
		return
	}
	fmt.Fprintf(c.Stderr, "%s:\n", label)
	spew.Fdump(c.Stderr, v)
}

// readInput reads the document from a file or stdin
func (c *Context) readInput(path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errors.NewInputError("", fmt.Sprintf("failed to read input file '%s'", path), err)
		}
		return string(data), nil
	}

	if f, ok := c.Stdin.(*os.File); ok {
		info, err := f.Stat()
		if err != nil {
			return "", errors.NewInputError("", "failed to access stdin", err)
		}
		if info.Mode()&os.ModeCharDevice != 0 {
			return readInteractiveInput(f, c.Stderr)
		}
	}

	data, err := io.ReadAll(c.Stdin)
	if err != nil {
		return "", errors.NewInputError("", "failed to read from stdin", err)
	}
	return string(data), nil
}

// readInteractiveInput lets users paste data and finish with Ctrl+D (EOF)
func readInteractiveInput(in io.Reader, prompt io.Writer) (string, error) {
	fmt.Fprintln(prompt, "Paste your data below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	reader := bufio.NewReader(in)
	var b strings.Builder
	for {
		line, err := reader.ReadString('\n')
		b.WriteString(line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.NewInputError("", "error reading input", err)
		}
	}
	return b.String(), nil
}

// writeOutput writes text to a file or stdout
func (c *Context) writeOutput(path, text string) error {
	if path != "" {
		if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
		}
		fmt.Fprintf(c.Stderr, "Output written to %s\n", path)
		return nil
	}

	if _, err := fmt.Fprintln(c.Stdout, text); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// resolveFormat parses name, or infers the format from the input file's
// extension when name is empty. fallback is used when neither is available.
func resolveFormat(name, path string, fallback converter.Format) (converter.Format, error) {
	if name != "" {
		return converter.ParseFormat(name)
	}
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		if f, err := converter.ParseFormat(ext); err == nil {
			return f, nil
		}
	}
	return fallback, nil
}
