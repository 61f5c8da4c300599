package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/roversim/game/engine"
)

var (
	ErrRoverNotFound   = errors.New("rover not found")
	ErrMissionNotFound = errors.New("mission not found")
)

// RoverService defines all simulation operations
type RoverService interface {
	// Session Management
	CreateSession(ctx context.Context, missionID string, mission *engine.Mission) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Rover Operations
	Execute(ctx context.Context, sessionID string, rover int, commands string) (*ExecuteResult, error)
	RunMission(ctx context.Context, sessionID string) (*RunMissionResult, error)
	Reset(ctx context.Context, sessionID string) (*SessionState, error)

	// Session State
	GetState(ctx context.Context, sessionID string) (*SessionState, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Stateless batch run
	Run(ctx context.Context, mission *engine.Mission) (*RunResult, error)

	// Missions
	ListMissions(ctx context.Context) ([]*MissionInfo, error)
	LoadMission(ctx context.Context, missionID string) (*engine.Mission, error)
	SaveMission(ctx context.Context, missionID string, mission *engine.Mission) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, missionID string, mission *engine.Mission) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, missionID string, mission *engine.Mission) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// MissionManager handles mission loading
type MissionManager interface {
	LoadMission(name string) (*engine.Mission, error)
	ListMissions() ([]*MissionInfo, error)
	GetDefault() *engine.Mission
	SaveMission(name string, mission *engine.Mission) error
}

// Session is a deployed mission whose rovers take commands interactively.
type Session struct {
	ID             string
	MissionID      string
	Mission        *engine.Mission
	Rovers         []*engine.Rover
	Clamps         []int
	History        []HistoryEntry
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// NewSession deploys every rover of mission at its start state.
func NewSession(id, missionID string, mission *engine.Mission) (*Session, error) {
	if err := engine.ValidateMission(mission); err != nil {
		return nil, err
	}

	now := time.Now()
	s := &Session{
		ID:             id,
		MissionID:      missionID,
		Mission:        mission,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	if err := s.deploy(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset redeploys the rovers at their start states. History is kept.
func (s *Session) Reset() error {
	return s.deploy()
}

func (s *Session) deploy() error {
	rovers := make([]*engine.Rover, 0, len(s.Mission.Rovers))
	for i, spec := range s.Mission.Rovers {
		r, err := engine.NewRover(s.Mission.Bounds, spec.Start())
		if err != nil {
			return &engine.RoverError{Index: i, Name: spec.Name, Err: err}
		}
		rovers = append(rovers, r)
	}
	s.Rovers = rovers
	s.Clamps = make([]int, len(rovers))
	return nil
}

// Rover returns the rover at index i.
func (s *Session) Rover(i int) (*engine.Rover, error) {
	if i < 0 || i >= len(s.Rovers) {
		return nil, fmt.Errorf("%w: index %d, session has %d rovers", ErrRoverNotFound, i, len(s.Rovers))
	}
	return s.Rovers[i], nil
}

// Execute runs commands on rover i and records every applied step.
func (s *Session) Execute(i int, commands string) (*ExecuteResult, error) {
	rover, err := s.Rover(i)
	if err != nil {
		return nil, err
	}

	steps, execErr := rover.Execute(commands)

	now := time.Now().Unix()
	for _, step := range steps {
		s.History = append(s.History, HistoryEntry{
			Seq:       len(s.History) + 1,
			Rover:     i,
			Command:   step.Command,
			From:      step.From,
			To:        step.To,
			Clamped:   step.Clamped,
			Timestamp: now,
		})
	}

	clamps := engine.CountClamps(steps)
	s.Clamps[i] += clamps

	result := &ExecuteResult{
		Rover:     i,
		Name:      s.Mission.Rovers[i].Name,
		Requested: len([]rune(commands)),
		Executed:  len(steps),
		Clamps:    clamps,
		Steps:     steps,
		Final:     rover.State(),
		Success:   execErr == nil,
	}
	if execErr != nil {
		roverErr := &engine.RoverError{Index: i, Name: result.Name, Err: execErr}
		result.Error = roverErr.Error()
		result.ErrorKind = engine.KindOf(roverErr)
	}
	return result, nil
}

// State snapshots the session.
func (s *Session) State() *SessionState {
	state := &SessionState{
		SessionID:     s.ID,
		MissionID:     s.MissionID,
		Bounds:        s.Mission.Bounds,
		Rovers:        make([]RoverStatus, 0, len(s.Rovers)),
		TotalCommands: len(s.History),
	}
	for i, r := range s.Rovers {
		spec := s.Mission.Rovers[i]
		state.Rovers = append(state.Rovers, RoverStatus{
			Index:    i,
			Name:     spec.Name,
			State:    r.State(),
			Start:    spec.Start(),
			Commands: spec.Commands,
			Clamps:   s.Clamps[i],
		})
	}
	return state
}
