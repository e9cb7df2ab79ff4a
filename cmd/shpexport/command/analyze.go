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

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/aidingjing/shp-processor/internal/cell"
	"github.com/aidingjing/shp-processor/internal/config"
	"github.com/aidingjing/shp-processor/internal/coordparse"
	"github.com/aidingjing/shp-processor/internal/fieldstats"
)

type AnalyzeCmd struct {
	Input    string `arg:"" optional:"" name:"input" help:"Path or URL to a JSON or CSV row file.  Omit when reading from a database."`
	Dsn      string `help:"MySQL data source name.  Mutually exclusive with the input argument."`
	Query    string `help:"Query to run against the database."`
	Sample   int    `help:"Number of rows to sample per column.  Defaults to the configured sample size."`
	Config   string `help:"Path to a YAML configuration file." type:"existingfile"`
	Format   string `help:"Report format.  Possible values: ${enum}." enum:"text, json" default:"text"`
	Unpretty bool   `help:"No newlines or indentation in the JSON output."`
	Verbose  bool   `help:"Include parse diagnostics for failing values."`
}

const (
	ColField       = "Column"
	ColSampled     = "Sampled"
	ColSuccess     = "Success"
	ColKind        = "Geometry"
	ColRecommended = "Recommended"
)

func (c *AnalyzeCmd) Run() error {
	cfg := config.Default()
	if c.Config != "" {
		loaded, err := config.Load(c.Config)
		if err != nil {
			return NewCommandError("%w", err)
		}
		cfg = loaded
	}
	if c.Sample > 0 {
		cfg.SampleSize = c.Sample
	}

	source, err := openSource(c.Input, c.Dsn, c.Query, cfg)
	if err != nil {
		return err
	}
	defer source.Close()

	result, err := source.Fetch(context.Background())
	if err != nil {
		return NewCommandError("failed to read rows: %w", err)
	}

	logger := zerolog.Nop()
	parser := coordparse.New(&coordparse.Options{
		ClosingEpsilon: cfg.ClosingEpsilon,
		Verbose:        c.Verbose,
		Logger:         &logger,
	})
	analyzer := fieldstats.New(parser, &fieldstats.Options{
		SampleCap: cfg.SampleSize,
		Threshold: cfg.SuccessThreshold,
	})

	rows := make([]map[string]cell.Value, len(result.Rows))
	for i, row := range result.Rows {
		rows[i] = row
	}
	results := analyzer.AnalyzeColumns(result.Columns, rows)

	if c.Format == "json" {
		return c.formatJSON(results)
	}
	return c.formatText(results)
}

func (c *AnalyzeCmd) formatJSON(results []*fieldstats.Result) error {
	encoder := json.NewEncoder(os.Stdout)
	if !c.Unpretty {
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
	}
	return encoder.Encode(results)
}

func (c *AnalyzeCmd) formatText(results []*fieldstats.Result) error {
	out := os.Stdout
	tbl := table.NewWriter()
	if term.IsTerminal(int(out.Fd())) {
		width, _, err := term.GetSize(int(out.Fd()))
		if err == nil {
			tbl.SetAllowedRowLength(width)
		}
	}

	tbl.AppendHeader(table.Row{ColField, ColSampled, ColSuccess, ColKind, ColRecommended})
	for _, result := range results {
		name := result.Field
		if result.Recommended {
			name = text.Bold.Sprint(name)
		}
		kind := ""
		if result.Kind != coordparse.Invalid {
			kind = result.Kind.String()
		}
		recommended := ""
		if result.Recommended {
			recommended = "yes"
		}
		tbl.AppendRow(table.Row{
			name,
			result.Sampled,
			fmt.Sprintf("%.0f%%", result.SuccessRatio*100),
			kind,
			recommended,
		})
	}

	tbl.SetStyle(table.StyleRounded)
	tbl.SetOutputMirror(out)
	tbl.Render()
	return nil
}
