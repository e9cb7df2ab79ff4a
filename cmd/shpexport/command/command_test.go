package command_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/aidingjing/shp-processor/cmd/shpexport/command"
	"github.com/aidingjing/shp-processor/internal/shapefile"
)

type Suite struct {
	suite.Suite
	originalStdout *os.File
	mockStdout     *os.File
}

func (s *Suite) SetupTest() {
	stdout, err := os.CreateTemp("", "stdout")
	s.Require().NoError(err)
	s.originalStdout = os.Stdout
	s.mockStdout = stdout
	os.Stdout = stdout
}

func (s *Suite) readStdout() []byte {
	_, seekErr := s.mockStdout.Seek(0, 0)
	s.Require().NoError(seekErr)
	data, err := io.ReadAll(s.mockStdout)
	s.Require().NoError(err)
	return data
}

func (s *Suite) TearDownTest() {
	os.Stdout = s.originalStdout
	s.Require().NoError(s.mockStdout.Close())
	s.Require().NoError(os.Remove(s.mockStdout.Name()))
}

// lastJSON decodes the captured stdout as a stream of JSON objects and
// returns the final one.
func (s *Suite) lastJSON() map[string]any {
	decoder := json.NewDecoder(bytes.NewReader(s.readStdout()))
	var doc map[string]any
	for decoder.More() {
		doc = map[string]any{}
		s.Require().NoError(decoder.Decode(&doc))
	}
	return doc
}

func (s *Suite) writeRowFile(name string, content string) string {
	path := filepath.Join(s.T().TempDir(), name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	return path
}

const pointRows = `[
	{"name": "alpha", "coordinates": "[[116.404, 39.915]]"},
	{"name": "beta", "coordinates": "[[121.473, 31.230]]"},
	{"name": "gamma", "coordinates": "not coordinates"}
]`

func (s *Suite) TestExportPoints() {
	input := s.writeRowFile("rows.json", pointRows)
	output := filepath.Join(s.T().TempDir(), "out.shp")

	cmd := &command.ExportCmd{
		Input:  input,
		Output: output,
		Type:   "auto",
		Format: "json",
	}
	s.Require().NoError(cmd.Run())

	report := &shapefile.Report{}
	s.Require().NoError(json.Unmarshal(s.readStdout(), report))
	s.Assert().Equal(2, report.Written)
	s.Assert().Equal(1, report.Skipped)
	s.Assert().Equal("Point", report.Geometry)

	contents, err := shapefile.Read(output)
	s.Require().NoError(err)
	s.Assert().Len(contents.Features, 2)
	s.Assert().Equal([]string{"name"}, contents.Fields)
}

func (s *Suite) TestExportExplicitField() {
	input := s.writeRowFile("rows.json", pointRows)
	output := filepath.Join(s.T().TempDir(), "out.shp")

	cmd := &command.ExportCmd{
		Input:  input,
		Output: output,
		Field:  "coordinates",
		Type:   "point",
		Format: "json",
	}
	s.Require().NoError(cmd.Run())
}

func (s *Suite) TestExportUnknownField() {
	input := s.writeRowFile("rows.json", pointRows)

	cmd := &command.ExportCmd{
		Input:  input,
		Output: filepath.Join(s.T().TempDir(), "out.shp"),
		Field:  "missing",
		Type:   "auto",
		Format: "json",
	}
	err := cmd.Run()
	s.Require().Error(err)
	s.Assert().ErrorContains(err, "missing")
}

func (s *Suite) TestExportNeedsASource() {
	cmd := &command.ExportCmd{
		Output: filepath.Join(s.T().TempDir(), "out.shp"),
		Type:   "auto",
		Format: "json",
	}
	err := cmd.Run()
	s.Require().Error(err)
	commandErr := &command.CommandError{}
	s.Assert().ErrorAs(err, &commandErr)
}

func (s *Suite) TestExportUnknownCrs() {
	input := s.writeRowFile("rows.json", pointRows)

	cmd := &command.ExportCmd{
		Input:  input,
		Output: filepath.Join(s.T().TempDir(), "out.shp"),
		Crs:    "EPSG:99999",
		Type:   "auto",
		Format: "json",
	}
	err := cmd.Run()
	s.Require().Error(err)
	validationErr := &shapefile.ValidationError{}
	s.Assert().ErrorAs(err, &validationErr)
}

func (s *Suite) TestAnalyze() {
	input := s.writeRowFile("rows.json", pointRows)

	cmd := &command.AnalyzeCmd{
		Input:  input,
		Sample: 100,
		Format: "json",
	}
	s.Require().NoError(cmd.Run())

	var results []map[string]any
	s.Require().NoError(json.Unmarshal(s.readStdout(), &results))
	s.Require().Len(results, 2)
	s.Assert().Equal("coordinates", results[0]["field"])
	s.Assert().Equal(true, results[0]["recommended"])
}

func (s *Suite) TestAnalyzeConfigSampleSize() {
	input := s.writeRowFile("rows.json", pointRows)
	configPath := s.writeRowFile("config.yaml", "sample_size: 1\n")

	cmd := &command.AnalyzeCmd{
		Input:    input,
		Config:   configPath,
		Format:   "json",
		Unpretty: true,
	}
	s.Require().NoError(cmd.Run())

	var results []map[string]any
	s.Require().NoError(json.Unmarshal(s.readStdout(), &results))
	s.Require().NotEmpty(results)
	for _, result := range results {
		s.Assert().Equal(float64(1), result["sampled"])
	}
}

func (s *Suite) TestMerge() {
	dir := s.T().TempDir()
	first := filepath.Join(dir, "first.shp")
	second := filepath.Join(dir, "second.shp")
	merged := filepath.Join(dir, "merged.shp")

	for i, output := range []string{first, second} {
		rows := pointRows
		if i == 1 {
			rows = `[{"name": "delta", "coordinates": "[[113.264, 23.129]]"}]`
		}
		cmd := &command.ExportCmd{
			Input:    s.writeRowFile("rows.json", rows),
			Output:   output,
			Type:     "auto",
			Format:   "json",
			Unpretty: true,
		}
		s.Require().NoError(cmd.Run())
	}

	cmd := &command.MergeCmd{Inputs: []string{first, second}, Output: merged, Unpretty: true}
	s.Require().NoError(cmd.Run())

	contents, err := shapefile.Read(merged)
	s.Require().NoError(err)
	s.Assert().Len(contents.Features, 3)
}

func (s *Suite) TestStats() {
	dir := s.T().TempDir()
	points := filepath.Join(dir, "points.shp")

	cmd := &command.ExportCmd{
		Input:  s.writeRowFile("rows.json", pointRows),
		Output: points,
		Type:   "auto",
		Format: "json",
	}
	s.Require().NoError(cmd.Run())

	polygons := filepath.Join(dir, "polygons.shp")
	polygonCmd := &command.ExportCmd{
		Input: s.writeRowFile("polygons.json", `[
			{"name": "china-east", "coordinates": "[[110, 20], [125, 20], [125, 45], [110, 45], [110, 20]]"}
		]`),
		Output: polygons,
		Type:   "auto",
		Format: "json",
	}
	s.Require().NoError(polygonCmd.Run())

	statsCmd := &command.StatsCmd{
		Polygons:  polygons,
		Target:    points,
		PolygonID: "name",
		TargetID:  "name",
		Format:    "json",
	}
	s.Require().NoError(statsCmd.Run())

	report := s.lastJSON()
	s.Require().Contains(report, "points")
	s.Assert().NotContains(report, "lines")
}

func (s *Suite) TestStatsLines() {
	dir := s.T().TempDir()

	polygons := filepath.Join(dir, "polygons.shp")
	polygonCmd := &command.ExportCmd{
		Input: s.writeRowFile("polygons.json", `[
			{"name": "china-east", "coordinates": "[[110, 20], [125, 20], [125, 45], [110, 45], [110, 20]]"}
		]`),
		Output: polygons,
		Type:   "auto",
		Format: "json",
	}
	s.Require().NoError(polygonCmd.Run())

	lines := filepath.Join(dir, "lines.shp")
	lineCmd := &command.ExportCmd{
		Input: s.writeRowFile("lines.json", `[
			{"name": "coastal", "coordinates": "[[113, 22], [121, 31]]"},
			{"name": "western", "coordinates": "[[90, 30], [100, 35]]"}
		]`),
		Output: lines,
		Type:   "auto",
		Format: "json",
	}
	s.Require().NoError(lineCmd.Run())

	statsCmd := &command.StatsCmd{
		Polygons:  polygons,
		Target:    lines,
		PolygonID: "name",
		TargetID:  "name",
		Format:    "json",
	}
	s.Require().NoError(statsCmd.Run())

	report := s.lastJSON()
	s.Require().Contains(report, "lines")

	lineReport := report["lines"].(map[string]any)
	s.Assert().Equal(float64(1), lineReport["assigned_lines"])
	s.Assert().Equal([]any{"western"}, lineReport["unassigned_ids"])
}

func (s *Suite) TestCrs() {
	cmd := &command.CrsCmd{Format: "json"}
	s.Require().NoError(cmd.Run())

	var entries []map[string]any
	s.Require().NoError(json.Unmarshal(s.readStdout(), &entries))
	s.Assert().Len(entries, len(shapefile.SupportedCRS))
}

func (s *Suite) TestVersion() {
	cmd := &command.VersionCmd{}
	s.Require().NoError(cmd.Run(&command.VersionInfo{Version: "v1.2.3"}))
	s.Assert().Equal("v1.2.3\n", string(s.readStdout()))
}

func (s *Suite) TestVersionDetail() {
	cmd := &command.VersionCmd{Detail: true}
	info := &command.VersionInfo{Version: "v1.2.3", Commit: "abc1234", Date: "2025-06-01"}
	s.Require().NoError(cmd.Run(info))
	s.Assert().Equal("v1.2.3 (commit abc1234, built 2025-06-01)\n", string(s.readStdout()))
}

func TestSuite(t *testing.T) {
	suite.Run(t, &Suite{})
}
