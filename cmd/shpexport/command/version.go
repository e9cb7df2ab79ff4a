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

type VersionCmd struct {
	Detail bool `help:"Include detail about the commit and build date."`
}

// VersionInfo carries the build metadata stamped in at link time.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

func (i *VersionInfo) detail() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.Commit, i.Date)
}

func (c *VersionCmd) Run(info *VersionInfo) error {
	if c.Detail {
		fmt.Println(info.detail())
		return nil
	}
	fmt.Println(info.Version)
	return nil
}
