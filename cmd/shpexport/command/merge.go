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
	"fmt"

	"github.com/fatih/color"

	"github.com/aidingjing/shp-processor/internal/shapefile"
)

type MergeCmd struct {
	Inputs   []string `arg:"" name:"inputs" help:"Shapefiles to merge." type:"existingfile"`
	Output   string   `short:"o" required:"" help:"Path for the merged shapefile."`
	Unpretty bool     `help:"No colors in the output."`
}

func (c *MergeCmd) Run() error {
	if c.Unpretty {
		color.NoColor = true
	}

	contents := make([]*shapefile.Contents, len(c.Inputs))
	for i, input := range c.Inputs {
		read, err := shapefile.Read(input)
		if err != nil {
			return NewCommandError("failed to read %q: %w", input, err)
		}
		contents[i] = read
	}

	compatibility := shapefile.CheckCompatibility(contents)
	for _, check := range compatibility.Checks {
		if check.Passed {
			color.Green(" ✓ %s", check.Title)
		} else {
			color.Red(" ✗ %s", check.Title)
			color.Red("   ↳ %s", check.Message)
		}
	}
	if !compatibility.Compatible {
		return NewCommandError("the inputs cannot be merged")
	}

	report, err := shapefile.Merge(context.Background(), c.Inputs, c.Output)
	if err != nil {
		return NewCommandError("%w", err)
	}

	fmt.Printf("\nMerged %d file%s into %s (%d %s feature%s).\n",
		len(c.Inputs), maybeS(len(c.Inputs)), c.Output, report.Written, report.Geometry, maybeS(report.Written))
	return nil
}
