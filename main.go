package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/mcncl/jsonstruct/internal/config"
	"github.com/mcncl/jsonstruct/internal/emit"
	"github.com/mcncl/jsonstruct/internal/errors"
	"github.com/mcncl/jsonstruct/internal/formatter"
	"github.com/mcncl/jsonstruct/internal/highlight"
	"github.com/mcncl/jsonstruct/internal/logging"
	"github.com/mcncl/jsonstruct/internal/models"
	"github.com/mcncl/jsonstruct/internal/parser"
	"github.com/mcncl/jsonstruct/internal/server"
)

// CLI defines the command-line interface
var CLI struct {
	Config  string `help:"Path to a YAML config file. Defaults to the nearest .jsonstruct.yml." short:"c" type:"path"`
	Debug   bool   `help:"Enable debug logging." short:"d"`
	Version bool   `help:"Show version information." short:"v"`

	Convert ConvertCmd `cmd:"" default:"withargs" help:"Convert JSON into Go struct declarations."`
	Serve   ServeCmd   `cmd:"" help:"Serve conversions over HTTP."`
}

// ConvertCmd reads one JSON document and writes Go declarations.
type ConvertCmd struct {
	Input       string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	URL         string `help:"Fetch the input JSON from an http(s) URL." short:"u"`
	Output      string `help:"Path to output Go file. If not specified, writes to stdout." short:"o" type:"path"`
	Package     string `help:"Package name for generated code. Empty emits declarations only." short:"p" default:"main"`
	RootName    string `help:"Name for the root type." short:"r" default:"RootType"`
	Format      bool   `help:"Format the output code according to Go standards." short:"f" default:"true" negatable:""`
	Int64       bool   `help:"Use int64 for integral numbers." name:"int64"`
	Color       string `help:"Colour terminal output (auto, always, never)." enum:"auto,always,never" default:"auto"`
	Interactive bool   `help:"Run in interactive mode, allowing direct JSON input with Ctrl+D to process." short:"I"`
}

// ServeCmd runs the HTTP conversion endpoint.
type ServeCmd struct {
	Addr string `help:"Listen address. Overrides server.addr from the config file."`
}

// Context holds the runtime context shared by commands
type Context struct {
	Debug  bool
	Config *config.Config
	Logger *slog.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Version information
const (
	Version = "0.2.0"
)

// fetchTimeout bounds --url requests.
const fetchTimeout = 30 * time.Second

func main() {
	app := kong.Must(&CLI,
		kong.Name("jsonstruct"),
		kong.Description("A tool to convert JSON to Go structs"),
		kong.UsageOnError(),
	)

	kctx, err := app.Parse(os.Args[1:])
	app.FatalIfErrorf(err)

	if CLI.Version {
		fmt.Printf("jsonstruct version %s\n", Version)
		return
	}

	// No arguments on a terminal means paste mode.
	if len(os.Args) == 1 {
		CLI.Convert.Interactive = true
	}

	ctx, cleanup, err := newContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(1)
	}
	defer func() { _ = cleanup() }()

	if err := kctx.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: jsonstruct --help\n")
		_ = cleanup()
		os.Exit(1)
	}
}

// newContext loads configuration with flag precedence and installs the logger.
func newContext() (*Context, func() error, error) {
	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadConfigWithCLI(configPath, config.CLIOverrides{
		Package:    CLI.Convert.Package,
		RootName:   CLI.Convert.RootName,
		ForceInt64: CLI.Convert.Int64,
		NoFormat:   !CLI.Convert.Format,
		Debug:      CLI.Debug,
	})
	if err != nil {
		return nil, nil, errors.NewConfigError(fmt.Sprintf("failed to load config '%s'", configPath), err)
	}

	cleanup, err := logging.Setup(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	if configPath != "" {
		slog.Debug("loaded config", "path", configPath)
	}

	return &Context{
		Debug:  CLI.Debug,
		Config: cfg,
		Logger: slog.Default(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, cleanup, nil
}

// Run executes the conversion pipeline: parse, emit, format, write.
func (c *ConvertCmd) Run(ctx *Context) error {
	value, err := c.parseInput(ctx)
	if err != nil {
		return err
	}

	code, err := c.generate(ctx, value)
	if err != nil {
		return err
	}

	return c.writeOutput(ctx, code)
}

func (c *ConvertCmd) generate(ctx *Context, value models.JSONValue) (string, error) {
	cfg := ctx.Config
	emitter := emit.New(cfg)

	// An explicit empty -p drops the package clause.
	packageName := cfg.Package
	if c.Package == "" {
		packageName = ""
	}

	var code string
	if packageName == "" {
		code = emitter.Emit(value, cfg.RootName)
	} else {
		var err error
		code, err = emitter.File(value, cfg.RootName, packageName)
		if err != nil {
			return "", err
		}
	}
	ctx.Logger.Debug("generated declarations", "root", cfg.RootName, "bytes", len(code))

	if cfg.Formatting.Enabled {
		formatted, err := formatter.NewFormatter().FormatOrOriginal(code)
		if err != nil {
			ctx.Logger.Warn("formatting failed, writing unformatted output", "error", err)
		}
		code = formatted
	}
	return code, nil
}

// parseInput reads JSON from a file, a URL or stdin
func (c *ConvertCmd) parseInput(ctx *Context) (models.JSONValue, error) {
	if c.Input != "" && c.URL != "" {
		return nil, errors.NewInputError("cannot specify both --input and --url", errors.ErrNoInput)
	}
	if c.Input != "" {
		return parser.ParseFile(c.Input)
	}
	if c.URL != "" {
		return fetchURL(ctx, c.URL)
	}

	if f, ok := ctx.Stdin.(*os.File); ok {
		info, err := f.Stat()
		if err != nil {
			return nil, errors.NewInputError("failed to access stdin", err)
		}
		if info.Mode()&os.ModeCharDevice != 0 {
			// Terminal is interactive (not piped)
			if c.Interactive {
				return readInteractiveInput(ctx)
			}
			return nil, errors.NewInputError("no input provided", errors.ErrNoInput)
		}
	}

	jsonData, err := io.ReadAll(ctx.Stdin)
	if err != nil {
		return nil, errors.NewInputError("failed to read from stdin", err)
	}
	if len(jsonData) == 0 {
		return nil, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return parser.ParseBytes(jsonData)
}

// fetchURL downloads a JSON document. The body is capped at the server's
// request limit.
func fetchURL(ctx *Context, rawURL string) (models.JSONValue, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("invalid URL '%s'", rawURL), err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, errors.NewInputError(fmt.Sprintf("invalid URL scheme '%s': only http and https are supported", u.Scheme), nil)
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewInputError("failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")

	ctx.Logger.Debug("fetching input", "url", rawURL)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("failed to fetch '%s'", rawURL), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewInputError(fmt.Sprintf("fetching '%s' returned %s", rawURL, resp.Status), nil)
	}

	limit := ctx.Config.Server.MaxBodyBytes
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("failed to read '%s'", rawURL), err)
	}
	if int64(len(body)) > limit {
		return nil, errors.NewInputError(fmt.Sprintf("response from '%s' exceeds %d bytes", rawURL, limit), errors.ErrBodyTooLarge)
	}
	return parser.ParseBytes(body)
}

// writeOutput writes code to file or stdout
func (c *ConvertCmd) writeOutput(ctx *Context, code string) error {
	if c.Output != "" {
		err := os.WriteFile(c.Output, []byte(code), 0o644)
		if err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", c.Output), err)
		}
		fmt.Fprintf(ctx.Stderr, "Generated Go code written to %s\n", c.Output)
		return nil
	}

	mode, err := highlight.ParseMode(c.Color)
	if err != nil {
		return errors.NewOutputError("invalid --color value", err)
	}
	if err := highlight.Write(ctx.Stdout, strings.TrimSpace(code)+"\n", mode); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// readInteractiveInput provides an interactive mode for users to paste JSON
// and signal completion with Ctrl+D (EOF)
func readInteractiveInput(ctx *Context) (models.JSONValue, error) {
	fmt.Fprintln(ctx.Stderr, "jsonstruct Interactive Mode")
	fmt.Fprintln(ctx.Stderr, "Paste your JSON below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	reader := bufio.NewReader(ctx.Stdin)
	var jsonBuilder strings.Builder
	for {
		line, err := reader.ReadString('\n')
		jsonBuilder.WriteString(line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewInputError("error reading input", err)
		}
	}

	jsonData := jsonBuilder.String()
	if strings.TrimSpace(jsonData) == "" {
		return nil, errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}

	fmt.Fprintln(ctx.Stderr, "\nProcessing JSON...")
	return parser.ParseString(jsonData)
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM.
func (s *ServeCmd) Run(ctx *Context) error {
	if s.Addr != "" {
		ctx.Config.Server.Addr = s.Addr
	}

	srv, err := server.New(ctx.Config, ctx.Logger)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(sigCtx)
}
