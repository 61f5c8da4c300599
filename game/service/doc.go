// Package service provides the business logic layer for the rover simulator.
//
// The service package implements:
//   - Multi-session rover management
//   - Command execution with per-step history
//   - Stateless batch runs of whole missions
//   - Mission listing, loading and saving
//
// Core Interfaces:
//
// RoverService is the main service interface providing high-level operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// MissionManager loads and stores missions.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the engine. Each session owns its own rovers; rovers are never shared, and
// calls on the service are serialized so that one command string finishes
// before the next one starts.
//
// Usage:
//
//	sessions := session.NewManager()
//	missions, _ := config.NewManager("missions")
//	svc := service.NewRoverService(sessions, missions)
//
//	info, err := svc.CreateSession(ctx, "classic", nil)
//	result, err := svc.Execute(ctx, info.ID, 0, "LMLMLMLMM")
//	fmt.Println(result.Final) // 1 3 N
//
// Command Failures:
//
// An unknown command stops the rover at that command. Execute reports the
// failure in ExecuteResult.Error and ErrorKind rather than as a Go error, so
// callers still get the steps that were applied and the rover's final state.
package service
