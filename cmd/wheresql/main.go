// Command wheresql compiles filter queries into SQL statements.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/valyala/fastjson"

	"github.com/hugr-lab/wheresql"
	"github.com/hugr-lab/wheresql/dialect"
)

// Version information, set at build time via -ldflags
var (
	Version = "dev"     // -X main.Version=$(git describe --tags --always)
	Commit  = "unknown" // -X main.Commit=$(git rev-parse --short HEAD)
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("wheresql", flag.ContinueOnError)
	flags.SetOutput(io.Discard) // Suppress default -h output

	var (
		configPath  = flags.String("config", "", "Path to YAML config file")
		dialectName = flags.String("dialect", "", "Target dialect (overrides config)")
		fieldList   = flags.String("fields", "", "Field table as id=name pairs, comma-separated")
		inline      = flags.String("query", "", "Inline JSON query document")
		format      = flags.String("format", "text", "Output format: text or json")
		encodePath  = flags.String("encode", "", "Write the requests as MessagePack instead of compiling")
		showVersion = flags.Bool("version", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
	)

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stdout)
			return nil
		}
		printUsage(stderr)
		return err
	}

	if *showHelp {
		printUsage(stdout)
		return nil
	}
	if *showVersion {
		fmt.Fprintf(stdout, "wheresql version %s (%s)\n", Version, Commit)
		return nil
	}
	if *format != "text" && *format != "json" {
		return fmt.Errorf("unknown format %q", *format)
	}

	cfg, err := loadConfig(*configPath, getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	target := cfg.Dialect
	if *dialectName != "" {
		target = *dialectName
	}
	if target == "" {
		target = dialect.Postgres
	}

	fields := wheresql.Fields{}
	for id, name := range cfg.Fields {
		fields[id] = name
	}
	extra, err := parseFields(*fieldList)
	if err != nil {
		return err
	}
	for id, name := range extra {
		fields[id] = name
	}

	reqs := cfg.requests(target, fields)
	if *inline != "" {
		more, err := jsonRequests("query", []byte(*inline), target, fields)
		if err != nil {
			return err
		}
		reqs = append(reqs, more...)
	}
	for _, path := range flags.Args() {
		more, err := fileRequests(path, stdin, target, fields)
		if err != nil {
			return err
		}
		reqs = append(reqs, more...)
	}
	if len(reqs) == 0 {
		printUsage(stderr)
		return errors.New("no queries given")
	}

	if *encodePath != "" {
		return encodeRequests(*encodePath, reqs)
	}

	compilerConfig, err := cfg.compilerConfig(stderr)
	if err != nil {
		return err
	}
	compiler, err := wheresql.NewCompiler(compilerConfig)
	if err != nil {
		return err
	}

	results, err := compiler.CompileBatch(ctx, reqs)
	if err != nil {
		return err
	}

	if *format == "json" {
		writeJSON(stdout, results)
	} else {
		writeText(stdout, stderr, results)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d queries failed", failed, len(results))
	}
	return nil
}

// jsonRequests parses one JSON query document or an array of them.
func jsonRequests(name string, data []byte, target string, fields wheresql.Fields) ([]wheresql.Request, error) {
	queries, err := wheresql.ParseQueries(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	reqs := make([]wheresql.Request, len(queries))
	for i, q := range queries {
		reqName := name
		if len(queries) > 1 {
			reqName = fmt.Sprintf("%s#%d", name, i)
		}
		reqs[i] = wheresql.Request{Name: reqName, Dialect: target, Fields: fields, Query: q}
	}
	return reqs, nil
}

// fileRequests loads requests from path: JSON documents, or MessagePack
// envelopes (optionally zstd compressed) for .msgpack, .mpk and .zst files.
// "-" reads JSON from stdin.
func fileRequests(path string, stdin io.Reader, target string, fields wheresql.Fields) ([]wheresql.Request, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mpk", ".zst":
	default:
		return jsonRequests(path, data, target, fields)
	}

	reqs, err := wheresql.UnmarshalRequests(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range reqs {
		if reqs[i].Name == "" {
			reqs[i].Name = fmt.Sprintf("%s#%d", path, i)
		}
		if reqs[i].Dialect == "" {
			reqs[i].Dialect = target
		}
		if reqs[i].Fields == nil {
			reqs[i].Fields = fields
		}
	}
	return reqs, nil
}

// encodeRequests writes reqs as MessagePack, compressed when path ends
// in .zst.
func encodeRequests(path string, reqs []wheresql.Request) error {
	data, err := wheresql.MarshalRequests(reqs, strings.EqualFold(filepath.Ext(path), ".zst"))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeText(stdout, stderr io.Writer, results []wheresql.Result) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", r.Name, r.Err)
			continue
		}
		if len(results) > 1 {
			fmt.Fprintf(stdout, "-- %s\n", r.Name)
		}
		fmt.Fprintln(stdout, r.SQL)
	}
}

func writeJSON(stdout io.Writer, results []wheresql.Result) {
	var a fastjson.Arena
	arr := a.NewArray()
	for i, r := range results {
		obj := a.NewObject()
		obj.Set("name", a.NewString(r.Name))
		if r.Err != nil {
			obj.Set("error", a.NewString(r.Err.Error()))
			if category := wheresql.Classify(r.Err); category != nil {
				obj.Set("category", a.NewString(category.Error()))
			}
		} else {
			obj.Set("sql", a.NewString(r.SQL))
		}
		arr.SetArrayItem(i, obj)
	}
	stdout.Write(append(arr.MarshalTo(nil), '\n'))
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `wheresql - Compile filter queries into SQL

Usage:
  wheresql [options] [file ...]

Files hold a JSON query document ({"where": [...], "limit": n, "macros": {...}})
or an array of them; "-" reads stdin. Files ending in .msgpack, .mpk or .zst
hold MessagePack request envelopes.

Options:
  --config PATH      Path to YAML config file
  --dialect NAME     Target dialect: %s (default: postgres)
  --fields LIST      Field table as id=name pairs, e.g. 1=id,2=name
  --query JSON       Inline JSON query document
  --format FORMAT    Output format: text or json (default: text)
  --encode PATH      Write the requests as MessagePack (.zst to compress)
  --version          Show version
  --help             Show this help
`, strings.Join(dialect.Default().Names(), ", "))
}
