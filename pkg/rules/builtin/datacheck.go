package builtin

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/google/cel-go/cel"

	"github.com/autoflow/autoflow/pkg/engine"
	"github.com/autoflow/autoflow/pkg/rules"
)

// celCostLimit bounds expression evaluation to prevent runaway expressions
// from stalling a pass.
const celCostLimit = 1_000_000

// DataCheckSettings configures a data validation rule.
type DataCheckSettings struct {
	// Path is the CSV file to validate.
	Path string `yaml:"path" validate:"required"`

	// Expression is a CEL expression evaluated once per row. It must
	// yield a boolean; `row` is a map of column name to string value and
	// `index` is the zero-based data row number.
	Expression string `yaml:"expression" validate:"required"`

	// Header treats the first row as column names. Without it, columns
	// are named col0, col1, ...
	Header bool `yaml:"header"`
}

// DataCheckRule validates every row of a CSV file against a CEL expression.
type DataCheckRule struct {
	*rules.Base
	settings DataCheckSettings
	program  cel.Program
}

// NewDataCheckRule constructs a data check rule, compiling the expression
// eagerly so a bad expression fails at bootstrap time.
func NewDataCheckRule(name string, settings map[string]any) (engine.Rule, error) {
	var s DataCheckSettings
	if err := rules.DecodeSettings(settings, &s); err != nil {
		return nil, err
	}

	env, err := cel.NewEnv(
		cel.Variable("row", cel.DynType),
		cel.Variable("index", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(s.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", issues.Err())
	}

	program, err := env.Program(ast, cel.CostLimit(celCostLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to build CEL program: %w", err)
	}

	return &DataCheckRule{
		Base:     rules.NewBase(name),
		settings: s,
		program:  program,
	}, nil
}

// Execute evaluates the expression against every data row and fails if any
// row does not yield true.
func (r *DataCheckRule) Execute(ctx context.Context) error {
	f, err := os.Open(r.settings.Path)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	var columns []string
	if r.settings.Header {
		header, err := reader.Read()
		if err == io.EOF {
			return nil // empty file, nothing to check
		}
		if err != nil {
			return fmt.Errorf("failed to read header: %w", err)
		}
		columns = header
	}

	var (
		total      int
		failed     int
		firstBad   = -1
		firstError error
	)
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read row %d: %w", index, err)
		}
		total++

		row := make(map[string]any, len(record))
		for i, value := range record {
			if i < len(columns) {
				row[columns[i]] = value
			} else {
				row[fmt.Sprintf("col%d", i)] = value
			}
		}

		out, _, err := r.program.Eval(map[string]any{
			"row":   row,
			"index": index,
		})
		ok := false
		if err == nil {
			ok, _ = out.Value().(bool)
		}
		if !ok {
			failed++
			if firstBad < 0 {
				firstBad = index
				firstError = err
			}
		}
	}

	if failed > 0 {
		if firstError != nil {
			return fmt.Errorf("%d of %d rows failed check, first at row %d: %w",
				failed, total, firstBad, firstError)
		}
		return fmt.Errorf("%d of %d rows failed check, first at row %d",
			failed, total, firstBad)
	}
	return nil
}
