package wheresql

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hugr-lab/wheresql/dialect"
	"github.com/hugr-lab/wheresql/filter"
	"github.com/hugr-lab/wheresql/internal/recovery"
	"github.com/hugr-lab/wheresql/macro"
)

// Compiler turns filter queries into SQL statements.
// A Compiler holds no per-query state and is safe for concurrent use.
type Compiler struct {
	table    string
	verb     string
	maxDepth int
	maxNodes int
	encOpts  filter.EncoderOptions
	dialects *dialect.Registry
	logger   *slog.Logger
}

// NewCompiler creates a Compiler from config.
//
// Returns an error wrapping ErrInvalidConfig (and ErrConfiguration) if
// config is invalid. Unset optional fields take their defaults.
//
// Example:
//
//	c, err := wheresql.NewCompiler(wheresql.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sql, err := c.CompileWhere("postgres", wheresql.FieldsFromInts(map[int]string{2: "name"}),
//	    wheresql.Query{Where: []any{"=", []any{"field", 2}, "cam"}})
//	// SELECT * FROM data WHERE "name" = 'cam';
func NewCompiler(config Config) (*Compiler, error) {
	if err := validateConfig(config); err != nil {
		return nil, wrap(fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}
	config = withDefaults(config)

	return &Compiler{
		table:    config.Table,
		verb:     config.Verb,
		maxDepth: config.MaxDepth,
		maxNodes: config.MaxNodes,
		encOpts:  filter.EncoderOptions{AllowUnknownFields: config.AllowUnknownFields},
		dialects: config.Dialects,
		logger:   config.Logger,
	}, nil
}

// CompileWhere compiles q for the named dialect and returns a complete
// statement terminated with ';', such as
//
//	SELECT * FROM data WHERE `name` = 'joe' AND `age` > 18 LIMIT 10;
//
// Macros are expanded, the where expression is validated and optimized,
// and field ids are replaced by the column names in fields. A where clause
// that optimizes away is omitted. On error no statement is returned; the
// error matches one of ErrConfiguration, ErrValidation, ErrReference or
// ErrCycle.
func (c *Compiler) CompileWhere(dialectName string, fields Fields, q Query) (string, error) {
	sql, err := c.compile(dialectName, fields, q, true)
	c.log(dialectName, q, err)
	return sql, err
}

// Condition is like CompileWhere but returns only the condition, without
// the WHERE keyword. An empty result means the query places no restriction
// on the rows. The row limit is validated but otherwise ignored.
func (c *Compiler) Condition(dialectName string, fields Fields, q Query) (string, error) {
	sql, err := c.compile(dialectName, fields, q, false)
	c.log(dialectName, q, err)
	return sql, err
}

func (c *Compiler) log(dialectName string, q Query, err error) {
	if err != nil {
		c.logger.Warn("Query compilation failed",
			"dialect", dialectName,
			"error", err,
		)
		return
	}
	c.logger.Debug("Query compiled",
		"dialect", dialectName,
		"has_where", q.Where != nil,
		"has_macros", len(q.Macros) > 0,
		"has_limit", q.Limit != nil,
	)
}

func (c *Compiler) compile(dialectName string, fields Fields, q Query, statement bool) (string, error) {
	d, err := c.dialects.Lookup(dialectName)
	if err != nil {
		return "", wrap(err)
	}
	if q.Limit != nil && *q.Limit < 0 {
		return "", validation("%w: %d", ErrNegativeLimit, *q.Limit)
	}

	where, err := c.condition(d, fields, q)
	if err != nil {
		return "", wrap(err)
	}
	if !statement {
		return where, nil
	}

	sql, err := recovery.RecoverToValue(c.logger, "BuildQuery", func() (string, error) {
		return d.BuildQuery(c.verb, c.table, where, q.Limit), nil
	})
	if err != nil {
		return "", wrap(err)
	}
	return sql, nil
}

// condition runs the macro, build, optimize and encode stages.
func (c *Compiler) condition(d dialect.Dialect, fields Fields, q Query) (string, error) {
	if q.Where == nil {
		return "", nil
	}

	where, err := filter.Normalize(q.Where)
	if err != nil {
		return "", err
	}

	// References are substituted even without a macro table, so that they
	// fail as unavailable macros instead of unknown operators.
	var table *macro.Table
	if q.Macros != nil {
		table, err = macro.Resolve(q.Macros)
		if err != nil {
			return "", err
		}
	}
	where, err = table.Replace(where, macro.WithMaxNodes(c.maxNodes))
	if err != nil {
		return "", err
	}

	root, err := filter.Build(where, filter.WithMaxDepth(c.maxDepth))
	if err != nil {
		return "", err
	}
	root = filter.Optimize(root)

	enc := filter.NewEncoder(d, fields, &c.encOpts)
	return recovery.RecoverToValue(c.logger, "Encode", func() (string, error) {
		return enc.Encode(root)
	})
}

// Result is the outcome of one request in a batch.
type Result struct {
	Name string
	SQL  string
	Err  error
}

// CompileBatch compiles independent requests concurrently. Results are in
// request order and carry per-request errors; the returned error is only
// set when ctx is canceled before every request ran.
func (c *Compiler) CompileBatch(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sql, err := c.CompileWhere(req.Dialect, req.Fields, req.Query)
			results[i] = Result{Name: req.Name, SQL: sql, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	c.logger.Debug("Batch compiled", "requests", len(reqs))
	return results, nil
}

var defaultCompiler = sync.OnceValue(func() *Compiler {
	c, _ := NewCompiler(Config{Logger: slog.New(slog.DiscardHandler)})
	return c
})

// CompileWhere compiles q with a Compiler using the default Config and the
// built-in dialects "mysql", "postgres", "sqlserver", "duckdb" and "sqlite".
func CompileWhere(dialectName string, fields Fields, q Query) (string, error) {
	return defaultCompiler().CompileWhere(dialectName, fields, q)
}
