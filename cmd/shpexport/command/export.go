// Copyright 2025 the shp-processor authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/aidingjing/shp-processor/internal/cell"
	"github.com/aidingjing/shp-processor/internal/config"
	"github.com/aidingjing/shp-processor/internal/coordparse"
	"github.com/aidingjing/shp-processor/internal/fieldstats"
	"github.com/aidingjing/shp-processor/internal/reconcile"
	"github.com/aidingjing/shp-processor/internal/rowsource"
	"github.com/aidingjing/shp-processor/internal/shapefile"
)

type ExportCmd struct {
	Input       string   `arg:"" optional:"" name:"input" help:"Path or URL to a JSON or CSV row file.  Omit when reading from a database."`
	Output      string   `short:"o" required:"" help:"Path for the output shapefile."`
	Dsn         string   `help:"MySQL data source name.  Mutually exclusive with the input argument."`
	Query       string   `help:"Query to run against the database."`
	Field       string   `help:"Name of the coordinate column.  Detected from the data when omitted."`
	Type        string   `help:"Force the output geometry type.  Possible values: ${enum}." enum:"auto, point, line, polygon" default:"auto"`
	Crs         string   `help:"Coordinate reference system name or EPSG code.  Defaults to WGS84."`
	Columns     []string `help:"Attribute columns to carry over.  All non coordinate columns when omitted."`
	Orientation string   `help:"Polygon ring orientation.  Possible values: keep, cw, ccw."`
	Config      string   `help:"Path to a YAML configuration file." type:"existingfile"`
	Format      string   `help:"Report format.  Possible values: ${enum}." enum:"text, json" default:"text"`
	Unpretty    bool     `help:"No colors in text output, no indentation in JSON output."`
	Verbose     bool     `help:"Log parse diagnostics."`
}

func (c *ExportCmd) Run() error {
	ctx := context.Background()

	cfg := config.Default()
	if c.Config != "" {
		loaded, err := config.Load(c.Config)
		if err != nil {
			return NewCommandError("%w", err)
		}
		cfg = loaded
	}
	crs := c.Crs
	if crs == "" {
		crs = cfg.CRS
	}
	orientation := c.Orientation
	if orientation == "" {
		orientation = cfg.RingOrientation
	}
	ringOrientation, err := shapefile.ParseOrientation(orientation)
	if err != nil {
		return NewCommandError("%w", err)
	}

	source, err := openSource(c.Input, c.Dsn, c.Query, cfg)
	if err != nil {
		return err
	}
	defer source.Close()

	result, err := source.Fetch(ctx)
	if err != nil {
		return NewCommandError("failed to read rows: %w", err)
	}
	if len(result.Rows) == 0 {
		return NewCommandError("the source returned no rows")
	}

	logger := zerolog.Nop()
	if c.Verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	parser := coordparse.New(&coordparse.Options{
		ClosingEpsilon: cfg.ClosingEpsilon,
		Verbose:        c.Verbose,
		Logger:         &logger,
	})

	field := c.Field
	if field == "" {
		detected, err := detectField(parser, cfg, result)
		if err != nil {
			return err
		}
		field = detected
		logger.Info().Str("field", field).Msg("detected coordinate column")
	} else if !contains(result.Columns, field) {
		return NewCommandError("column %q is not in the source (have: %s)", field, strings.Join(result.Columns, ", "))
	}

	columns := c.Columns
	if len(columns) == 0 {
		for _, column := range result.Columns {
			if column != field {
				columns = append(columns, column)
			}
		}
	}
	if len(columns) == 0 {
		return NewCommandError("no attribute columns left after removing the coordinate column")
	}

	var override coordparse.Kind
	if c.Type != "auto" {
		kind, ok := coordparse.ParseKind(c.Type)
		if !ok {
			return NewCommandError("unknown geometry type %q", c.Type)
		}
		override = kind
	}

	rows := make([]reconcile.Row, len(result.Rows))
	for i, row := range result.Rows {
		rows[i] = reconcile.Row{
			Attributes: row,
			Sequence:   parser.Parse(row[field].Text()),
		}
	}

	outcome, err := reconcile.Reconcile(rows, override, &reconcile.Options{MaxReasons: cfg.MaxReasons})
	if err != nil {
		return NewCommandError("%w", err)
	}

	features := make([]shapefile.Feature, 0, len(rows))
	for i, rowOutcome := range outcome.Rows {
		if rowOutcome.Disposition == reconcile.Reject {
			continue
		}
		features = append(features, shapefile.Feature{
			Attributes: rows[i].Attributes,
			Sequence:   rowOutcome.Sequence,
		})
	}

	job := &shapefile.Job{
		OutputPath:      c.Output,
		CRS:             crs,
		Columns:         columns,
		Target:          outcome.Target,
		RingOrientation: ringOrientation,
	}
	report, err := shapefile.NewExporter(&shapefile.Options{Logger: &logger}).Export(ctx, job, features)
	if err != nil {
		return NewCommandError("%w", err)
	}
	report.Skipped += outcome.Rejected
	report.Reasons = outcome.Reasons

	if c.Format == "json" {
		return c.formatJSON(report)
	}
	return c.formatText(report)
}

func (c *ExportCmd) formatJSON(report *shapefile.Report) error {
	encoder := json.NewEncoder(os.Stdout)
	if !c.Unpretty {
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
	}
	return encoder.Encode(report)
}

func (c *ExportCmd) formatText(report *shapefile.Report) error {
	if c.Unpretty {
		color.NoColor = true
	}

	fmt.Printf("\nWrote %d %s feature%s to %s (%s).\n", report.Written, report.Geometry, maybeS(report.Written), report.Files[0], report.CRS)
	if report.Skipped > 0 {
		color.Yellow("Skipped %d row%s:", report.Skipped, maybeS(report.Skipped))
		for _, reason := range report.Reasons {
			color.Yellow("  - %s", reason)
		}
		if report.Skipped > len(report.Reasons) {
			color.Yellow("  (%d more not shown)", report.Skipped-len(report.Reasons))
		}
	}
	if len(report.Renamed) > 0 {
		renames := make([]string, 0, len(report.Renamed))
		for column, name := range report.Renamed {
			renames = append(renames, fmt.Sprintf("%s -> %s", column, name))
		}
		sort.Strings(renames)
		color.Yellow("Renamed %d attribute field%s: %s", len(renames), maybeS(len(renames)), strings.Join(renames, ", "))
	}
	if report.Warnings > 0 {
		color.Yellow("%d coordinate%s outside the geographic range.", report.Warnings, maybeS(report.Warnings))
	}
	return nil
}

// openSource picks between a file source and a database source.  The
// configuration file can carry the database settings so runs are
// repeatable without flags.
func openSource(input string, dsn string, query string, cfg *config.Config) (rowsource.Source, error) {
	if dsn == "" && cfg.Database.DSN != "" && input == "" {
		dsn = cfg.Database.DSN
	}
	if query == "" {
		query = cfg.Database.Query
	}

	if input != "" && dsn != "" {
		return nil, NewCommandError("provide a row file or --dsn, not both")
	}
	if input == "" && dsn == "" {
		return nil, NewCommandError("provide a row file or --dsn")
	}
	if input != "" {
		source, err := rowsource.NewFile(input)
		if err != nil {
			return nil, NewCommandError("%w", err)
		}
		return source, nil
	}
	if query == "" {
		return nil, NewCommandError("--query is required with --dsn")
	}
	source, err := rowsource.NewMySQL(dsn, query)
	if err != nil {
		return nil, NewCommandError("%w", err)
	}
	return source, nil
}

func detectField(parser *coordparse.Parser, cfg *config.Config, result *rowsource.Result) (string, error) {
	analyzer := fieldstats.New(parser, &fieldstats.Options{
		SampleCap: cfg.SampleSize,
		Threshold: cfg.SuccessThreshold,
	})
	rows := make([]map[string]cell.Value, len(result.Rows))
	for i, row := range result.Rows {
		rows[i] = row
	}
	for _, candidate := range analyzer.AnalyzeColumns(result.Columns, rows) {
		if candidate.Recommended {
			return candidate.Field, nil
		}
	}
	return "", NewCommandError("no column looks like a coordinate column; use --field to pick one")
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
