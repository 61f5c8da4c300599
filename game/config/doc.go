// Package config provides mission management for the rover simulator.
//
// The config package handles:
//   - Loading missions from a directory of named files
//   - Decoding the text, JSON and YAML mission formats
//   - Mission validation before any rover is deployed
//   - Default mission management and cache refresh
//
// Mission Formats:
//
// A mission is a plateau plus the rovers deployed on it. The same mission can
// be written three ways, chosen by file extension:
//   - .txt: the plain whitespace format read by package parser
//   - .json: engine.Mission encoded with encoding/json
//   - .yaml or .yml: engine.Mission encoded with gopkg.in/yaml.v3
//
// Usage:
//
//	manager, err := config.NewManager("missions")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	mission, err := manager.LoadMission("classic")
//	missions, err := manager.ListMissions()
//
// A mission whose bounds are empty, whose headings are unknown or whose
// rovers start outside the plateau is rejected with ErrInvalidMission.
package config
