package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/roversim/game/engine"
	"github.com/wricardo/mcp-training/roversim/game/parser"
	"gopkg.in/yaml.v3"
)

// LoadFile reads and validates a single mission file of any supported format.
func LoadFile(path string) (*engine.Mission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMissionNotFound
		}
		return nil, fmt.Errorf("failed to read mission file: %w", err)
	}

	mission, err := Decode(filepath.Ext(path), MissionID(path), data)
	if err != nil {
		return nil, err
	}

	if err := engine.ValidateMission(mission); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMission, err)
	}
	return mission, nil
}

// Decode parses mission data according to the file extension ext.
func Decode(ext, name string, data []byte) (*engine.Mission, error) {
	var mission engine.Mission

	switch strings.ToLower(ext) {
	case ".txt":
		parsed, err := parser.Parse(name, string(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMission, err)
		}
		return parsed, nil
	case ".json":
		if err := json.Unmarshal(data, &mission); err != nil {
			return nil, fmt.Errorf("%w: %w: %w", ErrInvalidMission, engine.ErrMalformedInput, err)
		}
	case ".yaml", ".yml":
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w: %w", ErrInvalidMission, engine.ErrMalformedInput, err)
		}
		if !hasKey(&doc, "bounds") {
			return nil, fmt.Errorf("%w: %w: mission has no bounds", ErrInvalidMission, engine.ErrMalformedInput)
		}
		if err := doc.Decode(&mission); err != nil {
			return nil, fmt.Errorf("%w: %w: %w", ErrInvalidMission, engine.ErrMalformedInput, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}

	return &mission, nil
}

// hasKey reports whether the top-level mapping of doc sets key to a non-null value.
func hasKey(doc *yaml.Node, key string) bool {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return false
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == key {
			return root.Content[i+1].Tag != "!!null"
		}
	}
	return false
}

// Encode serializes a mission in the format matching ext.
func Encode(ext string, mission *engine.Mission) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".txt":
		var buf bytes.Buffer
		if err := parser.Format(&buf, mission); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ".json":
		data, err := json.MarshalIndent(mission, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal mission: %w", err)
		}
		return data, nil
	case ".yaml", ".yml":
		data, err := yaml.Marshal(mission)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal mission: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
}
