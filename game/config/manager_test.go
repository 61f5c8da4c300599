package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/roversim/game/engine"
)

const textMission = "5 5\n1 2 N\nLMLMLMLMM\n3 3 E\nMMRMMRMRRM\n"

const yamlMission = `name: Ridge
description: One rover along the ridge
bounds:
  x_max: 4
  y_max: 2
rovers:
  - name: scout
    x: 0
    y: 0
    heading: E
    commands: MMMMMM
`

const jsonMission = `{
  "name": "Crater",
  "bounds": {"x_max": 3, "y_max": 3},
  "rovers": [{"x": 1, "y": 1, "heading": "W", "commands": "MM"}]
}`

func writeMission(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func createTestMissionDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeMission(t, dir, "classic.txt", textMission)
	writeMission(t, dir, "ridge.yaml", yamlMission)
	writeMission(t, dir, "crater.json", jsonMission)
	return dir
}

func TestNewManager(t *testing.T) {
	dir := createTestMissionDir(t)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	def := manager.GetDefault()
	if def == nil {
		t.Fatal("Expected default mission")
	}
	if def.Name != "classic" {
		t.Errorf("Expected classic as default, got %s", def.Name)
	}
}

func TestNewManager_NonExistentDir(t *testing.T) {
	_, err := NewManager("/non/existent/path")
	if err == nil {
		t.Error("Expected error for non-existent directory")
	}
}

func TestNewManager_EmptyDirUsesMinimalMission(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if manager.GetDefault().Name != "default" {
		t.Errorf("Expected minimal default mission, got %s", manager.GetDefault().Name)
	}
}

func TestLoadMission_AllFormats(t *testing.T) {
	manager, err := NewManager(createTestMissionDir(t))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	tests := []struct {
		name      string
		wantName  string
		wantRover int
		bounds    engine.Bounds
	}{
		{"classic", "classic", 2, engine.NewBounds(5, 5)},
		{"ridge", "Ridge", 1, engine.NewBounds(4, 2)},
		{"ridge.yaml", "Ridge", 1, engine.NewBounds(4, 2)},
		{"crater", "Crater", 1, engine.NewBounds(3, 3)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			mission, err := manager.LoadMission(test.name)
			if err != nil {
				t.Fatalf("LoadMission failed: %v", err)
			}
			if mission.Name != test.wantName {
				t.Errorf("Expected name %s, got %s", test.wantName, mission.Name)
			}
			if len(mission.Rovers) != test.wantRover {
				t.Errorf("Expected %d rovers, got %d", test.wantRover, len(mission.Rovers))
			}
			if mission.Bounds != test.bounds {
				t.Errorf("Expected bounds %+v, got %+v", test.bounds, mission.Bounds)
			}
		})
	}

	ridge, _ := manager.LoadMission("ridge")
	if ridge.Rovers[0].Heading != engine.East || ridge.Rovers[0].Name != "scout" {
		t.Errorf("YAML rover not decoded: %+v", ridge.Rovers[0])
	}
}

func TestLoadMission_Errors(t *testing.T) {
	dir := createTestMissionDir(t)
	writeMission(t, dir, "offplateau.yaml", "bounds: {x_max: 2, y_max: 2}\nrovers:\n  - {x: 5, y: 5, heading: N, commands: M}\n")
	writeMission(t, dir, "badheading.json", `{"bounds": {"x_max": 2, "y_max": 2}, "rovers": [{"x": 0, "y": 0, "heading": "Q", "commands": "M"}]}`)
	writeMission(t, dir, "garbage.txt", "not a mission")
	writeMission(t, dir, "noheading.json", `{"bounds": {"x_max": 2, "y_max": 2}, "rovers": [{"x": 1, "y": 1, "commands": "M"}]}`)
	writeMission(t, dir, "noheading-yaml.yaml", "bounds: {x_max: 2, y_max: 2}\nrovers:\n  - {x: 1, y: 1, commands: M}\n")
	writeMission(t, dir, "nobounds.json", `{"rovers": [{"x": 0, "y": 0, "heading": "N", "commands": "M"}]}`)
	writeMission(t, dir, "nobounds-yaml.yaml", "rovers:\n  - {x: 0, y: 0, heading: N, commands: M}\n")
	writeMission(t, dir, "nullbounds.yaml", "bounds: ~\nrovers: []\n")

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	tests := []struct {
		name string
		want error
		kind engine.ErrorKind
	}{
		{"missing", ErrMissionNotFound, ""},
		{"offplateau", ErrInvalidMission, engine.KindOutOfBounds},
		{"badheading", ErrInvalidMission, engine.KindInvalidHeading},
		{"garbage", ErrInvalidMission, engine.KindMalformedInput},
		{"noheading", ErrInvalidMission, engine.KindInvalidHeading},
		{"noheading-yaml", ErrInvalidMission, engine.KindInvalidHeading},
		{"nobounds", ErrInvalidMission, engine.KindMalformedInput},
		{"nobounds-yaml", ErrInvalidMission, engine.KindMalformedInput},
		{"nullbounds", ErrInvalidMission, engine.KindMalformedInput},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := manager.LoadMission(test.name)
			if !errors.Is(err, test.want) {
				t.Fatalf("Expected %v, got %v", test.want, err)
			}
			if got := engine.KindOf(err); got != test.kind {
				t.Errorf("Expected kind %q, got %q", test.kind, got)
			}
		})
	}
}

func TestListMissions(t *testing.T) {
	dir := createTestMissionDir(t)
	writeMission(t, dir, "broken.json", "{")
	writeMission(t, dir, "notes.md", "ignored")

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	missions, err := manager.ListMissions()
	if err != nil {
		t.Fatalf("ListMissions failed: %v", err)
	}

	if len(missions) != 3 {
		t.Fatalf("Expected 3 valid missions, got %d", len(missions))
	}

	ids := []string{"classic", "crater", "ridge"}
	for i, m := range missions {
		if m.MissionID != ids[i] {
			t.Errorf("Expected mission %s at %d, got %s", ids[i], i, m.MissionID)
		}
	}
	if missions[0].Rovers != 2 {
		t.Errorf("Expected classic to have 2 rovers, got %d", missions[0].Rovers)
	}
}

func TestSaveMission(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	mission := MinimalMission()
	mission.Name = "saved"

	for _, name := range []string{"saved", "saved-json.json", "saved-text.txt"} {
		if err := manager.SaveMission(name, mission); err != nil {
			t.Fatalf("SaveMission(%s) failed: %v", name, err)
		}
	}

	for _, file := range []string{"saved.yaml", "saved-json.json", "saved-text.txt"} {
		loaded, err := LoadFile(filepath.Join(dir, file))
		if err != nil {
			t.Fatalf("LoadFile(%s) failed: %v", file, err)
		}
		if len(loaded.Rovers) != 2 || loaded.Rovers[1].Commands != "MMRMMRMRRM" {
			t.Errorf("%s: rovers not preserved: %+v", file, loaded.Rovers)
		}
		if loaded.Rovers[0].Heading != engine.North {
			t.Errorf("%s: heading not preserved: %v", file, loaded.Rovers[0].Heading)
		}
	}

	invalid := &engine.Mission{Bounds: engine.NewBounds(1, 1), Rovers: []engine.RoverSpec{{X: 3}}}
	if err := manager.SaveMission("invalid", invalid); !errors.Is(err, ErrInvalidMission) {
		t.Errorf("Expected ErrInvalidMission, got %v", err)
	}
}

func TestRefreshCache(t *testing.T) {
	dir := createTestMissionDir(t)
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if _, err := manager.LoadMission("crater"); err != nil {
		t.Fatalf("LoadMission failed: %v", err)
	}

	writeMission(t, dir, "crater.json", `{"name": "Crater v2", "bounds": {"x_max": 3, "y_max": 3}, "rovers": []}`)

	cached, _ := manager.LoadMission("crater")
	if cached.Name != "Crater" {
		t.Errorf("Expected cached mission, got %s", cached.Name)
	}

	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache failed: %v", err)
	}

	fresh, err := manager.LoadMission("crater")
	if err != nil {
		t.Fatalf("LoadMission failed: %v", err)
	}
	if fresh.Name != "Crater v2" {
		t.Errorf("Expected reloaded mission, got %s", fresh.Name)
	}
}

func TestSetDefault(t *testing.T) {
	manager, err := NewManager(createTestMissionDir(t))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SetDefault("ridge"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if manager.GetDefault().Name != "Ridge" {
		t.Errorf("Expected Ridge as default, got %s", manager.GetDefault().Name)
	}

	if err := manager.SetDefault("missing"); !errors.Is(err, ErrMissionNotFound) {
		t.Errorf("Expected ErrMissionNotFound, got %v", err)
	}
}

func TestConcurrentLoad(t *testing.T) {
	manager, err := NewManager(createTestMissionDir(t))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := manager.LoadMission("ridge"); err != nil {
				t.Errorf("LoadMission failed: %v", err)
			}
		}()
	}
	wg.Wait()
}
