package wheresql

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hugr-lab/wheresql/dialect"
	"github.com/hugr-lab/wheresql/filter"
	"github.com/hugr-lab/wheresql/macro"
)

// Defaults applied by NewCompiler.
const (
	DefaultTable = "data"
	DefaultVerb  = "SELECT"
)

// Config contains configuration for a Compiler.
// The zero value is valid and compiles SELECT statements against "data".
type Config struct {
	// Table is the relation queried by assembled statements.
	// OPTIONAL: Uses DefaultTable if empty.
	// Inserted verbatim, so it must already be a valid (quoted if needed) name.
	Table string

	// Verb starts assembled statements.
	// OPTIONAL: Uses DefaultVerb if empty.
	Verb string

	// MaxDepth bounds the nesting depth of where expressions.
	// OPTIONAL: If 0, uses filter.DefaultMaxDepth. MUST NOT be negative.
	MaxDepth int

	// MaxNodes bounds the size of a where expression after macro expansion.
	// OPTIONAL: If 0, uses macro.DefaultMaxNodes. MUST NOT be negative.
	MaxNodes int

	// AllowUnknownFields prints the raw field id as the column name when it
	// has no entry in the field table. By default an unknown field id fails
	// compilation with a reference error.
	AllowUnknownFields bool

	// Dialects resolves dialect names.
	// OPTIONAL: Uses dialect.Default() if nil.
	Dialects *dialect.Registry

	// Logger for internal logging.
	// OPTIONAL: If nil, a text logger on stderr is created at LogLevel.
	Logger *slog.Logger

	// LogLevel sets the logging level of the default logger.
	// OPTIONAL: If nil, uses Info level.
	// If Logger is also provided, LogLevel is ignored (use pre-configured logger).
	LogLevel *slog.Level
}

// validateConfig checks that Config fields are valid.
func validateConfig(config Config) error {
	if config.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", config.MaxDepth)
	}
	if config.MaxNodes < 0 {
		return fmt.Errorf("max nodes must not be negative, got %d", config.MaxNodes)
	}
	if strings.ContainsRune(config.Table, ';') {
		return fmt.Errorf("table name %q must not contain ';'", config.Table)
	}
	if strings.ContainsRune(config.Verb, ';') {
		return fmt.Errorf("verb %q must not contain ';'", config.Verb)
	}
	return nil
}

// withDefaults returns config with every optional field filled in.
func withDefaults(config Config) Config {
	if config.Table == "" {
		config.Table = DefaultTable
	}
	if config.Verb == "" {
		config.Verb = DefaultVerb
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = filter.DefaultMaxDepth
	}
	if config.MaxNodes == 0 {
		config.MaxNodes = macro.DefaultMaxNodes
	}
	if config.Dialects == nil {
		config.Dialects = dialect.Default()
	}
	if config.Logger == nil {
		level := slog.LevelInfo
		if config.LogLevel != nil {
			level = *config.LogLevel
		}
		config.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return config
}
