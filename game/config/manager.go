package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/roversim/game/engine"
	"github.com/wricardo/mcp-training/roversim/game/service"
)

var (
	ErrMissionNotFound = service.ErrMissionNotFound
	ErrInvalidMission  = errors.New("invalid mission")
	ErrUnknownFormat   = errors.New("unknown mission format")
)

// Extensions lists the supported mission file extensions in lookup order.
var Extensions = []string{".txt", ".json", ".yaml", ".yml"}

// Manager handles mission loading and caching
type Manager struct {
	missionDir     string
	defaultMission *engine.Mission
	missions       map[string]*engine.Mission
	mu             sync.RWMutex
}

// NewManager creates a new mission manager
func NewManager(missionDir string) (*Manager, error) {
	if _, err := os.Stat(missionDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("mission directory does not exist: %s", missionDir)
	}

	m := &Manager{
		missionDir: missionDir,
		missions:   make(map[string]*engine.Mission),
	}

	if err := m.loadDefaultMission(); err != nil {
		return nil, fmt.Errorf("failed to load default mission: %w", err)
	}

	return m, nil
}

// LoadMission loads a mission by name. The extension may be omitted.
func (m *Manager) LoadMission(name string) (*engine.Mission, error) {
	id := MissionID(name)

	m.mu.RLock()
	if mission, exists := m.missions[id]; exists {
		m.mu.RUnlock()
		return mission, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if mission, exists := m.missions[id]; exists {
		return mission, nil
	}

	path, err := m.resolve(name)
	if err != nil {
		return nil, err
	}

	mission, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if mission.Name == "" {
		mission.Name = id
	}

	m.missions[id] = mission
	return mission, nil
}

// ListMissions returns information about all loadable missions
func (m *Manager) ListMissions() ([]*service.MissionInfo, error) {
	entries, err := os.ReadDir(m.missionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mission directory: %w", err)
	}

	var missions []*service.MissionInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !supported(entry.Name()) {
			continue
		}

		id := MissionID(entry.Name())
		if seen[id] {
			continue
		}

		mission, err := m.LoadMission(entry.Name())
		if err != nil {
			// Skip invalid missions
			continue
		}
		seen[id] = true

		missions = append(missions, &service.MissionInfo{
			Filename:    entry.Name(),
			MissionID:   id,
			Name:        mission.Name,
			Description: mission.Description,
			Bounds:      mission.Bounds,
			Rovers:      len(mission.Rovers),
		})
	}

	sort.Slice(missions, func(i, j int) bool {
		return missions[i].MissionID < missions[j].MissionID
	})

	return missions, nil
}

// GetDefault returns the default mission
func (m *Manager) GetDefault() *engine.Mission {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultMission
}

// SetDefault sets the default mission by name
func (m *Manager) SetDefault(name string) error {
	mission, err := m.LoadMission(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultMission = mission
	return nil
}

// RefreshCache drops every cached mission and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.missions = make(map[string]*engine.Mission)
	m.mu.Unlock()

	return m.loadDefaultMission()
}

// SaveMission writes a mission to disk. The format follows the extension
// of name and defaults to YAML.
func (m *Manager) SaveMission(name string, mission *engine.Mission) error {
	if err := engine.ValidateMission(mission); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMission, err)
	}

	filename := filepath.Base(name)
	if !supported(filename) {
		filename += ".yaml"
	}

	data, err := Encode(filepath.Ext(filename), mission)
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(m.missionDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write mission file: %w", err)
	}

	m.mu.Lock()
	m.missions[MissionID(filename)] = mission
	m.mu.Unlock()

	return nil
}

// loadDefaultMission prefers "classic", then the first valid mission,
// then a built-in one.
func (m *Manager) loadDefaultMission() error {
	mission, err := m.LoadMission("classic")
	if err != nil {
		missions, listErr := m.ListMissions()
		if listErr != nil || len(missions) == 0 {
			m.setDefault(MinimalMission())
			return nil
		}

		mission, err = m.LoadMission(missions[0].Filename)
		if err != nil {
			m.setDefault(MinimalMission())
			return nil
		}
	}

	m.setDefault(mission)
	return nil
}

func (m *Manager) setDefault(mission *engine.Mission) {
	m.mu.Lock()
	m.defaultMission = mission
	m.mu.Unlock()
}

func (m *Manager) resolve(name string) (string, error) {
	name = filepath.Base(name)
	if supported(name) {
		path := filepath.Join(m.missionDir, name)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return "", ErrMissionNotFound
			}
			return "", fmt.Errorf("failed to stat mission file: %w", err)
		}
		return path, nil
	}

	for _, ext := range Extensions {
		path := filepath.Join(m.missionDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrMissionNotFound
}

// MinimalMission is used when the mission directory holds no valid mission.
func MinimalMission() *engine.Mission {
	return &engine.Mission{
		Name:        "default",
		Description: "Two rovers on a 5x5 plateau",
		Bounds:      engine.NewBounds(5, 5),
		Rovers: []engine.RoverSpec{
			{Name: "rover-1", X: 1, Y: 2, Heading: engine.North, Commands: "LMLMLMLMM"},
			{Name: "rover-2", X: 3, Y: 3, Heading: engine.East, Commands: "MMRMMRMRRM"},
		},
	}
}

// MissionID strips the directory and a supported extension from name.
func MissionID(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	if supported(base) {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

func supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
