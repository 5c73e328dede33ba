// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejzpr/mimir-graph/internal/api"
	"github.com/tejzpr/mimir-graph/internal/loader"
	"github.com/tejzpr/mimir-graph/internal/memgraph"
	"github.com/tejzpr/mimir-graph/internal/observability"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func setupToolContext(t *testing.T, docs int, pageSize int) *ToolContext {
	t.Helper()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	corpus := make([]api.Document, docs)
	for i := range corpus {
		id := fmt.Sprintf("doc-%d", i)
		tag := "even"
		if i%2 == 1 {
			tag = "odd"
		}
		corpus[i] = api.Document{
			ID:            id,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
			ContainerTags: []string{tag},
			MemoryEntries: []api.MemoryEntry{{ID: "m", DocumentID: id, Content: "note " + id}},
		}
	}

	opts := memgraph.DefaultOptions()
	opts.ManualTicks = true
	opts.Filter = loader.Filter{PageSize: pageSize}

	inst, err := memgraph.New(context.Background(), loader.New(api.NewStaticFetcher(corpus)),
		memgraph.WithOptions(opts),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = inst.Close(context.Background()) })

	return NewToolContext(inst, observability.NewCollector("test"), zap.NewNop())
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args
	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func getResultText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if textContent, ok := result.Content[0].(mcp.TextContent); ok {
		return textContent.Text
	}
	return ""
}

func TestLayoutTool(t *testing.T) {
	ctx := setupToolContext(t, 2, 10)

	t.Run("json", func(t *testing.T) {
		result := call(t, LayoutHandler(ctx), map[string]interface{}{})
		require.False(t, result.IsError, getResultText(result))

		var snap struct {
			Nodes []map[string]any `json:"nodes"`
			Edges []map[string]any `json:"edges"`
		}
		require.NoError(t, json.Unmarshal([]byte(getResultText(result)), &snap))
		assert.Len(t, snap.Nodes, 4)
		assert.Len(t, snap.Edges, 2)
		assert.Contains(t, snap.Nodes[0], "x")
	})

	t.Run("yaml", func(t *testing.T) {
		result := call(t, LayoutHandler(ctx), map[string]interface{}{"format": "yaml"})
		require.False(t, result.IsError, getResultText(result))

		var snap map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(getResultText(result)), &snap))
		assert.Len(t, snap["nodes"], 4)
	})

	t.Run("bad format", func(t *testing.T) {
		result := call(t, LayoutHandler(ctx), map[string]interface{}{"format": "xml"})
		assert.True(t, result.IsError)
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(ctx.Metrics.ToolCalls.WithLabelValues(ToolLayout, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ctx.Metrics.ToolCalls.WithLabelValues(ToolLayout, "error")))
}

func TestNeighborsTool(t *testing.T) {
	ctx := setupToolContext(t, 2, 10)

	result := call(t, NeighborsHandler(ctx), map[string]interface{}{"id": "doc-1", "hops": 1.0})
	require.False(t, result.IsError, getResultText(result))
	text := getResultText(result)
	assert.Contains(t, text, "Found 2 nodes and 1 edges around 'doc-1'")
	assert.Contains(t, text, "`doc-1/m`")
	assert.Contains(t, text, "doc-memory")

	result = call(t, NeighborsHandler(ctx), map[string]interface{}{})
	assert.True(t, result.IsError)

	result = call(t, NeighborsHandler(ctx), map[string]interface{}{"id": "missing"})
	assert.True(t, result.IsError)
	assert.Contains(t, getResultText(result), "missing")
}

func TestLoadMoreTool(t *testing.T) {
	ctx := setupToolContext(t, 4, 2)

	result := call(t, LoadMoreHandler(ctx), nil)
	require.False(t, result.IsError, getResultText(result))

	var res loader.LoadResult
	require.NoError(t, json.Unmarshal([]byte(getResultText(result)), &res))
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 2, res.Added)
	assert.False(t, res.HasMore)
}

func TestFilterTool(t *testing.T) {
	ctx := setupToolContext(t, 4, 10)

	result := call(t, FilterHandler(ctx), map[string]interface{}{"tags": []interface{}{"odd"}})
	require.False(t, result.IsError, getResultText(result))

	var res loader.LoadResult
	require.NoError(t, json.Unmarshal([]byte(getResultText(result)), &res))
	assert.Equal(t, 2, res.Added)

	snap, err := ctx.Instance.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 4)
	assert.Equal(t, []string{"odd"}, snap.ContainerTags)
}

func TestViewportTool(t *testing.T) {
	ctx := setupToolContext(t, 2, 10)

	result := call(t, ViewportHandler(ctx), map[string]interface{}{
		"min_x": -5000.0, "max_x": 5000.0, "min_y": -5000.0, "max_y": 5000.0,
	})
	require.False(t, result.IsError, getResultText(result))

	var res memgraph.ViewportResult
	require.NoError(t, json.Unmarshal([]byte(getResultText(result)), &res))
	assert.Len(t, res.Visible, 4)
	assert.False(t, res.LoadTriggered)

	result = call(t, ViewportHandler(ctx), map[string]interface{}{"min_x": 0.0})
	assert.True(t, result.IsError)

	result = call(t, ViewportHandler(ctx), map[string]interface{}{
		"min_x": 10.0, "max_x": -10.0, "min_y": 0.0, "max_y": 1.0,
	})
	assert.True(t, result.IsError)
}
