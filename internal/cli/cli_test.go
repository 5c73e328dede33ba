// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejzpr/mimir-graph/internal/api"
	"github.com/tejzpr/mimir-graph/internal/config"
	"github.com/tejzpr/mimir-graph/internal/graph"
	"github.com/tejzpr/mimir-graph/internal/observability"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func writeDocuments(t *testing.T, dir string) string {
	t.Helper()
	docs := `[
		{"id": "a", "createdAt": "2026-01-01T00:00:00Z", "containerTags": ["work"],
		 "memoryEntries": [{"id": "m1", "content": "first"}, {"id": "m2", "content": "second"}]},
		{"id": "b", "createdAt": "2026-01-02T00:00:00Z", "containerTags": ["home"], "previousVersionId": "a"}
	]`
	path := filepath.Join(dir, "documents.json")
	require.NoError(t, os.WriteFile(path, []byte(docs), 0644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	root := newRootCmd()

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestApplyCLIOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	applyCLIOverrides(cfg, globalFlags{
		apiURL:   "https://api.example.com",
		dbType:   "postgres",
		dbDSN:    "postgresql://localhost/graph",
		logLevel: "debug",
		tags:     []string{"work"},
	})

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "postgresql://localhost/graph", cfg.Database.PostgresDSN)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"work"}, cfg.Graph.ContainerTags)
}

func TestGraphOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Graph.Strategy = "nearest"
	cfg.Graph.PageSize = 20
	cfg.Graph.TickIntervalMS = 33
	cfg.Graph.Seed = 7

	opts := graphOptions(cfg)
	assert.Equal(t, graph.StrategyNearest, opts.Selector.Strategy)
	assert.Equal(t, 0.725, opts.Selector.Threshold)
	assert.Equal(t, 20, opts.Filter.PageSize)
	assert.Equal(t, 33*time.Millisecond, opts.TickInterval)
	assert.Equal(t, int64(7), opts.Layout.Seed)
	assert.Equal(t, 300.0, opts.Layout.LinkDistance)
}

func TestRetryPolicy(t *testing.T) {
	policy := retryPolicy(config.DefaultConfig())
	assert.Equal(t, api.RetryPolicy{MaxTries: 3, InitialInterval: 200 * time.Millisecond, MaxInterval: 5 * time.Second}, policy)
}

func TestFetcher(t *testing.T) {
	a := &app{cfg: config.DefaultConfig(), logger: zap.NewNop()}

	_, err := a.fetcher("")
	assert.ErrorIs(t, err, errNoSource)

	a.cfg.API.BaseURL = "https://api.example.com"
	f, err := a.fetcher("")
	require.NoError(t, err)
	assert.IsType(t, &api.RetryingFetcher{}, f)

	f, err = a.fetcher(writeDocuments(t, t.TempDir()))
	require.NoError(t, err)
	assert.IsType(t, &api.StaticFetcher{}, f)
}

func TestNewApp_WithStoreAndMetrics(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	a, err := newApp(globalFlags{dbType: "sqlite", dbPath: filepath.Join(t.TempDir(), "graph.db")})
	require.NoError(t, err)
	defer a.close()

	assert.NotNil(t, a.store)
	assert.IsType(t, &observability.Collector{}, a.metrics)
}

func TestLayoutCommand_JSON(t *testing.T) {
	input := writeDocuments(t, t.TempDir())

	stdout, stderr, err := runCLI(t, "layout", "--input", input, "--max-ticks", "500")
	require.NoError(t, err, stderr)
	assert.Contains(t, stderr, "laid out 4 nodes and 3 edges")

	var snap struct {
		Nodes []map[string]any `json:"nodes"`
		Edges []map[string]any `json:"edges"`
		State string           `json:"state"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &snap))
	assert.Len(t, snap.Nodes, 4)
	assert.Len(t, snap.Edges, 3)
	assert.Equal(t, "resting", snap.State)
}

func TestLayoutCommand_YAMLFileWithTags(t *testing.T) {
	dir := t.TempDir()
	input := writeDocuments(t, dir)
	output := filepath.Join(dir, "graph.yaml")

	_, stderr, err := runCLI(t, "layout", "--input", input, "--tags", "work", "--format", "yaml", "-o", output)
	require.NoError(t, err, stderr)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var snap map[string]any
	require.NoError(t, yaml.Unmarshal(data, &snap))
	assert.Len(t, snap["nodes"], 3)
	assert.Equal(t, []any{"work"}, snap["containerTags"])
}

func TestLayoutCommand_Errors(t *testing.T) {
	_, _, err := runCLI(t, "layout")
	assert.ErrorIs(t, err, errNoSource)

	_, _, err = runCLI(t, "layout", "--input", "x.json", "--format", "xml")
	assert.Error(t, err)
}

func TestRunsCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeDocuments(t, dir)
	dbPath := filepath.Join(dir, "graph.db")

	_, _, err := runCLI(t, "runs")
	assert.ErrorIs(t, err, errNoStore)

	_, stderr, err := runCLI(t, "layout", "--input", input, "--db-type", "sqlite", "--db-path", dbPath)
	require.NoError(t, err, stderr)

	_, stderr, err = runCLI(t, "layout", "--input", input, "--db-type", "sqlite", "--db-path", dbPath, "--fresh")
	require.NoError(t, err, stderr)

	stdout, stderr, err := runCLI(t, "runs", "--db-type", "sqlite", "--db-path", dbPath)
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "DOCS")
	assert.Equal(t, 3, strings.Count(stdout, "\n"), "header plus two runs")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "mimir-graph dev")
}
