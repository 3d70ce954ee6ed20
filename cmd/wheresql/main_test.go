package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noenv(string) string { return "" }

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	err := run(context.Background(), args, strings.NewReader(stdin), stdout, stderr, noenv)
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestRunVersion(t *testing.T) {
	stdout, _, err := runCLI(t, "", "--version")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "wheresql version") {
		t.Errorf("expected version output, got %q", stdout)
	}
}

func TestRunHelp(t *testing.T) {
	stdout, _, err := runCLI(t, "", "--help")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "--dialect") {
		t.Errorf("expected --dialect in help, got %q", stdout)
	}
	if !strings.Contains(stdout, "mysql, postgres") {
		t.Errorf("expected dialect names in help, got %q", stdout)
	}
}

func TestRunInvalidFlag(t *testing.T) {
	if _, _, err := runCLI(t, "", "--invalid-flag"); err == nil {
		t.Error("expected error for invalid flag")
	}
}

func TestRunNoQueries(t *testing.T) {
	if _, _, err := runCLI(t, ""); err == nil {
		t.Error("expected error without queries")
	}
}

func TestRunInlineQuery(t *testing.T) {
	stdout, _, err := runCLI(t, "",
		"--dialect", "mysql",
		"--fields", "2=name,4=age",
		"--query", `{"where": ["and", ["=", ["field", 2], "joe"], [">", ["field", 4], 18]], "limit": 10}`,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "SELECT * FROM data WHERE `name` = 'joe' AND `age` > 18 LIMIT 10;\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestRunStdin(t *testing.T) {
	stdout, _, err := runCLI(t, `{"limit": 20}`, "--dialect", "sqlserver", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "SELECT TOP 20 * FROM data;\n" {
		t.Errorf("unexpected output %q", stdout)
	}
}

func TestRunConfig(t *testing.T) {
	dir := t.TempDir()
	config := writeFile(t, dir, "wheresql.yaml", `
dialect: ${DIALECT}
table: people
fields:
  1: id
  2: name
  4: age
queries:
  adult_joe:
    where: ["macro", "adult_joe"]
    limit: 10
    macros:
      joe: ["=", ["field", 2], "joe"]
      adult: [">", ["field", 4], 18]
      adult_joe: ["and", ["macro", "joe"], ["macro", "adult"]]
  cam:
    where: ["=", ["field", 2], "cam"]
`)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	getenv := func(key string) string {
		if key == "DIALECT" {
			return "mysql"
		}
		return ""
	}
	if err := run(context.Background(), []string{"--config", config}, strings.NewReader(""), stdout, stderr, getenv); err != nil {
		t.Fatalf("unexpected error: %v (stderr %q)", err, stderr.String())
	}

	expected := "-- adult_joe\n" +
		"SELECT * FROM people WHERE `name` = 'joe' AND `age` > 18 LIMIT 10;\n" +
		"-- cam\n" +
		"SELECT * FROM people WHERE `name` = 'cam';\n"
	if stdout.String() != expected {
		t.Errorf("expected %q, got %q", expected, stdout.String())
	}
}

func TestRunJSONFormat(t *testing.T) {
	dir := t.TempDir()
	queries := writeFile(t, dir, "queries.json", `[
		{"where": ["=", ["field", 2], "cam"]},
		{"where": ["and", ["field", 2]]}
	]`)

	stdout, _, err := runCLI(t, "", "--fields", "2=name", "--format", "json", queries)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 queries failed") {
		t.Fatalf("expected one failure, got %v", err)
	}
	if !strings.Contains(stdout, `"sql":"SELECT * FROM data WHERE \"name\" = 'cam';"`) {
		t.Errorf("expected compiled statement in output, got %s", stdout)
	}
	if !strings.Contains(stdout, `"category":"validation error"`) {
		t.Errorf("expected validation category in output, got %s", stdout)
	}
}

func TestRunEncodeRoundTrip(t *testing.T) {
	for _, name := range []string{"requests.msgpack", "requests.zst"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			encoded := filepath.Join(dir, name)

			_, _, err := runCLI(t, "",
				"--dialect", "postgres",
				"--fields", "2=name",
				"--query", `{"where": ["=", ["field", 2], "cam"]}`,
				"--encode", encoded,
			)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}

			// The dialect and fields travel with the envelope.
			stdout, _, err := runCLI(t, "", "--dialect", "mysql", encoded)
			if err != nil {
				t.Fatalf("compile failed: %v", err)
			}
			if stdout != "SELECT * FROM data WHERE \"name\" = 'cam';\n" {
				t.Errorf("unexpected output %q", stdout)
			}
		})
	}
}

func TestRunUnknownDialect(t *testing.T) {
	_, stderr, err := runCLI(t, "", "--dialect", "postgress", "--query", `{"limit": 1}`)
	if err == nil {
		t.Fatal("expected error for unknown dialect")
	}
	if !strings.Contains(stderr, "unsupported dialect postgress") {
		t.Errorf("expected dialect error on stderr, got %q", stderr)
	}
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields("1=id, 2=name")
	if err != nil {
		t.Fatalf("parseFields failed: %v", err)
	}
	if fields["1"] != "id" || fields["2"] != "name" {
		t.Errorf("unexpected fields %v", fields)
	}

	if _, err := parseFields("1"); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestLoadConfigInvalidLogLevel(t *testing.T) {
	dir := t.TempDir()
	config := writeFile(t, dir, "bad.yaml", "log_level: loud\n")

	_, _, err := runCLI(t, "", "--config", config, "--query", `{"limit": 1}`)
	if err == nil || !strings.Contains(err.Error(), "log_level") {
		t.Errorf("expected log_level error, got %v", err)
	}
}

func TestLoadConfigEnvDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "env.yaml", "dialect: ${DIALECT:-sqlserver}\ntable: ${TABLE:-events}\n")

	getenv := func(key string) string {
		if key == "TABLE" {
			return "people"
		}
		return ""
	}
	cfg, err := loadConfig(path, getenv)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Dialect != "sqlserver" {
		t.Errorf("expected default dialect sqlserver, got %q", cfg.Dialect)
	}
	if cfg.Table != "people" {
		t.Errorf("expected table from environment, got %q", cfg.Table)
	}
}
