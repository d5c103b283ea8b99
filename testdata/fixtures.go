// Package testdata provides recorded pose fixtures for tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/obitec/bodyway/internal/overlay"
)

//go:embed poses/*.json
var posesFS embed.FS

// Pose is a recorded set of landmarks in the pixel space of a Width x Height frame.
type Pose struct {
	Description string            `json:"description"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Landmarks   overlay.Landmarks `json:"landmarks"`
}

// LoadPose loads a pose fixture by name, without the .json extension.
func LoadPose(name string) (*Pose, error) {
	data, err := posesFS.ReadFile("poses/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load pose %s: %w", name, err)
	}

	var p Pose
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode pose %s: %w", name, err)
	}
	return &p, nil
}

// PoseNames lists the available pose fixtures.
func PoseNames() ([]string, error) {
	entries, err := posesFS.ReadDir("poses")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), path.Ext(entry.Name())))
	}
	return names, nil
}
