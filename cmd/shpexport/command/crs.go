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
	"encoding/json"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/aidingjing/shp-processor/internal/shapefile"
)

type CrsCmd struct {
	Format   string `help:"Report format.  Possible values: ${enum}." enum:"text, json" default:"text"`
	Unpretty bool   `help:"No newlines or indentation in the JSON output."`
}

func (c *CrsCmd) Run() error {
	if c.Format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		if !c.Unpretty {
			encoder.SetIndent("", "  ")
		}
		return encoder.Encode(shapefile.SupportedCRS)
	}

	tbl := table.NewWriter()
	tbl.AppendHeader(table.Row{"Name", "Code", "Kind"})
	for _, crs := range shapefile.SupportedCRS {
		kind := "projected"
		if crs.IsGeographic() {
			kind = "geographic"
		}
		tbl.AppendRow(table.Row{crs.Name, crs.Code, kind})
	}
	tbl.SetStyle(table.StyleRounded)
	tbl.SetOutputMirror(os.Stdout)
	tbl.Render()
	return nil
}
