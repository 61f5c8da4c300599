// Command analyze prints quick, human-readable heuristics about the mission
// files in a directory (default "missions"). For each mission it summarizes
// the plateau and rovers, runs the mission, and highlights rovers that were
// stopped by an edge or by an invalid command.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/wricardo/mcp-training/roversim/game/config"
	"github.com/wricardo/mcp-training/roversim/game/engine"
)

// MissionAnalysis is the outcome of analyzing one mission.
type MissionAnalysis struct {
	ID        string
	Mission   *engine.Mission
	Reports   []engine.Report
	Clamps    int
	Failed    int
	Collision []engine.Position // cells where more than one rover finished
}

func main() {
	dir := "missions"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	manager, err := config.NewManager(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	missions, err := manager.ListMissions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing missions: %v\n", err)
		os.Exit(1)
	}

	for _, info := range missions {
		fmt.Printf("\n=== Analyzing %s ===\n", info.Filename)
		mission, err := manager.LoadMission(info.MissionID)
		if err != nil {
			fmt.Printf("Error loading mission: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analyzeMission(info.MissionID, mission))
	}
}

func analyzeMission(id string, mission *engine.Mission) *MissionAnalysis {
	a := &MissionAnalysis{ID: id, Mission: mission}

	reports, _ := engine.Run(mission)
	a.Reports = reports

	seen := make(map[engine.Position]int)
	for _, r := range reports {
		a.Clamps += r.Clamps
		if !r.OK() {
			a.Failed++
		}
		seen[r.Final.Position]++
		if seen[r.Final.Position] == 2 {
			a.Collision = append(a.Collision, r.Final.Position)
		}
	}
	return a
}

func printAnalysis(w io.Writer, a *MissionAnalysis) {
	m := a.Mission
	fmt.Fprintf(w, "Name: %s\n", m.Name)
	if m.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", m.Description)
	}
	fmt.Fprintf(w, "Plateau: (%d,%d) to (%d,%d)\n", m.Bounds.XMin, m.Bounds.YMin, m.Bounds.XMax, m.Bounds.YMax)
	fmt.Fprintf(w, "Rovers: %d\n", len(m.Rovers))

	if a.Reports == nil {
		fmt.Fprintf(w, "⚠️  CRITICAL: mission cannot run\n")
		return
	}

	for _, r := range a.Reports {
		status := "✅"
		if !r.OK() {
			status = "❌"
		}
		fmt.Fprintf(w, "  %s rover %d: %s -> %s (%d/%d commands, %d clamps)\n",
			status, r.Index, r.Start, r.Final, r.Executed, r.Commands, r.Clamps)
		if r.Error != "" {
			fmt.Fprintf(w, "     %s\n", r.Error)
		}
	}

	if a.Clamps > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d moves were stopped at the plateau edge\n", a.Clamps)
	} else {
		fmt.Fprintf(w, "✅ No rover reached an edge\n")
	}

	if a.Failed > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d rovers stopped on an invalid command\n", a.Failed)
	}

	for _, p := range a.Collision {
		fmt.Fprintf(w, "⚠️  WARNING: several rovers finished at (%d, %d)\n", p.X, p.Y)
	}
}
