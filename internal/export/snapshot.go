// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tejzpr/mimir-graph/internal/api"
	"github.com/tejzpr/mimir-graph/internal/graph"
	"gopkg.in/yaml.v3"
)

// Format is a snapshot encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml, case-insensitively
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported snapshot format: %s", s)
	}
}

// PositionedNode is a node with its layout position
type PositionedNode struct {
	graph.Node `yaml:",inline"`
	X          float64 `json:"x" yaml:"x"`
	Y          float64 `json:"y" yaml:"y"`
}

// RenderedEdge is an edge with its pulse period in milliseconds
type RenderedEdge struct {
	graph.Edge `yaml:",inline"`
	PulseMS    float64 `json:"pulseMs" yaml:"pulseMs"`
}

// NewRenderedEdge converts an edge for output
func NewRenderedEdge(e graph.Edge) RenderedEdge {
	return RenderedEdge{Edge: e, PulseMS: float64(e.PulseDuration) / float64(time.Millisecond)}
}

// Snapshot is a laid-out graph at one instant
type Snapshot struct {
	ID            string               `json:"id" yaml:"id"`
	GraphKey      string               `json:"graphKey" yaml:"graphKey"`
	ContainerTags []string             `json:"containerTags,omitempty" yaml:"containerTags,omitempty"`
	State         string               `json:"state" yaml:"state"`
	Alpha         float64              `json:"alpha" yaml:"alpha"`
	Ticks         uint64               `json:"ticks" yaml:"ticks"`
	Pagination    api.Pagination       `json:"pagination" yaml:"pagination"`
	Extent        graph.ViewportBounds `json:"extent" yaml:"extent"`
	Nodes         []PositionedNode     `json:"nodes" yaml:"nodes"`
	Edges         []RenderedEdge       `json:"edges" yaml:"edges"`
	GeneratedAt   time.Time            `json:"generatedAt" yaml:"generatedAt"`
}

// Encode writes snap to w in the given format
func Encode(w io.Writer, snap *Snapshot, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("failed to encode snapshot as json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("failed to encode snapshot as yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to flush yaml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported snapshot format: %s", format)
	}
	return nil
}

// Marshal returns snap encoded in the given format
func Marshal(snap *Snapshot, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, snap, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a snapshot written by Encode
func Decode(r io.Reader, format Format) (*Snapshot, error) {
	var snap Snapshot
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&snap); err != nil {
			return nil, fmt.Errorf("failed to decode json snapshot: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
			return nil, fmt.Errorf("failed to decode yaml snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported snapshot format: %s", format)
	}
	return &snap, nil
}
