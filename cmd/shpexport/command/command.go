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

import "fmt"

var CLI struct {
	Export  ExportCmd  `cmd:"" help:"Export rows with coordinate text to a shapefile."`
	Analyze AnalyzeCmd `cmd:"" help:"Report which columns look like spatial columns."`
	Merge   MergeCmd   `cmd:"" help:"Merge compatible shapefiles into one."`
	Stats   StatsCmd   `cmd:"" help:"Count the points of one shapefile inside the polygons of another."`
	Crs     CrsCmd     `cmd:"" help:"List supported coordinate reference systems."`
	Version VersionCmd `cmd:"" help:"Print the version of this program."`
}

// CommandError wraps an error with no additional context.  Commands
// return it for failures the user can act on without a stack of
// prefixes.
type CommandError struct {
	err error
}

func NewCommandError(format string, args ...any) *CommandError {
	return &CommandError{err: fmt.Errorf(format, args...)}
}

func (e *CommandError) Error() string {
	return e.err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.err
}

func maybeS(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
