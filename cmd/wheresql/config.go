package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hugr-lab/wheresql"
)

// fileConfig is the YAML configuration file.
//
//	dialect: mysql
//	table: people
//	fields:
//	  1: id
//	  2: name
//	log_level: debug
//	queries:
//	  adults:
//	    where: [">", ["field", 4], 18]
//	    limit: 10
type fileConfig struct {
	Dialect            string                    `yaml:"dialect"`
	Table              string                    `yaml:"table"`
	Verb               string                    `yaml:"verb"`
	Fields             map[string]string         `yaml:"fields"`
	MaxDepth           int                       `yaml:"max_depth"`
	MaxNodes           int                       `yaml:"max_nodes"`
	AllowUnknownFields bool                      `yaml:"allow_unknown_fields"`
	LogLevel           string                    `yaml:"log_level"`
	Queries            map[string]wheresql.Query `yaml:"queries"`
}

// loadConfig reads a YAML config file, expanding ${VAR} and
// ${VAR:-default} references with getenv. An empty path yields the zero
// config.
func loadConfig(path string, getenv func(string) string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := os.Expand(string(data), func(name string) string {
		name, fallback, hasDefault := strings.Cut(name, ":-")
		if v := getenv(name); v != "" || !hasDefault {
			return v
		}
		return fallback
	})

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// compilerConfig converts the file settings into a compiler Config.
// Log records go to stderr, at Error level unless log_level says otherwise.
func (c *fileConfig) compilerConfig(stderr io.Writer) (wheresql.Config, error) {
	level := slog.LevelError
	if c.LogLevel != "" {
		if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return wheresql.Config{}, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
		}
	}
	return wheresql.Config{
		Table:              c.Table,
		Verb:               c.Verb,
		MaxDepth:           c.MaxDepth,
		MaxNodes:           c.MaxNodes,
		AllowUnknownFields: c.AllowUnknownFields,
		Logger:             slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
	}, nil
}

// requests returns the configured queries sorted by name.
func (c *fileConfig) requests(dialectName string, fields wheresql.Fields) []wheresql.Request {
	names := make([]string, 0, len(c.Queries))
	for name := range c.Queries {
		names = append(names, name)
	}
	slices.Sort(names)

	reqs := make([]wheresql.Request, 0, len(names))
	for _, name := range names {
		reqs = append(reqs, wheresql.Request{
			Name:    name,
			Dialect: dialectName,
			Fields:  fields,
			Query:   c.Queries[name],
		})
	}
	return reqs
}

// parseFields parses "1=id,2=name" into a field table.
func parseFields(s string) (wheresql.Fields, error) {
	fields := wheresql.Fields{}
	if s == "" {
		return fields, nil
	}
	for _, pair := range strings.Split(s, ",") {
		id, name, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || id == "" || name == "" {
			return nil, fmt.Errorf("invalid field mapping %q, expected id=name", pair)
		}
		fields[id] = name
	}
	return fields, nil
}
