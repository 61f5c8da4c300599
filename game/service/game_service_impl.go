package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wricardo/mcp-training/roversim/game/engine"
)

// InlineMissionID identifies sessions created from a mission sent with the request.
const InlineMissionID = "inline"

// roverServiceImpl implements the RoverService interface
type roverServiceImpl struct {
	sessions SessionManager
	missions MissionManager
	mu       sync.RWMutex
}

// NewRoverService creates a new rover service instance
func NewRoverService(sessions SessionManager, missions MissionManager) RoverService {
	return &roverServiceImpl{
		sessions: sessions,
		missions: missions,
	}
}

// CreateSession deploys a mission in a new session. An inline mission takes
// precedence over missionID; with neither, the default mission is used.
func (s *roverServiceImpl) CreateSession(ctx context.Context, missionID string, mission *engine.Mission) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case mission != nil:
		if missionID == "" {
			missionID = InlineMissionID
		}
	case missionID != "":
		loaded, err := s.missions.LoadMission(missionID)
		if err != nil {
			if errors.Is(err, ErrMissionNotFound) {
				return nil, s.notFoundError(missionID, err)
			}
			return nil, fmt.Errorf("failed to load mission %s: %w", missionID, err)
		}
		mission = loaded
	default:
		mission = s.missions.GetDefault()
		missionID = mission.Name
	}

	session, err := s.sessions.Create("", missionID, mission)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sessionInfo(session), nil
}

// notFoundError lists the available missions to help the caller.
func (s *roverServiceImpl) notFoundError(missionID string, err error) error {
	available, listErr := s.missions.ListMissions()
	if listErr == nil && len(available) > 0 {
		var ids []string
		for _, m := range available {
			ids = append(ids, m.MissionID)
		}
		return fmt.Errorf("mission '%s' not found. Available missions: %v: %w", missionID, ids, err)
	}
	return fmt.Errorf("mission '%s' not found. Use /api/missions to list available missions: %w", missionID, err)
}

// GetSession retrieves session information. It takes the write lock
// because touching the session writes LastAccessedAt.
func (s *roverServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *roverServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *roverServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Execute runs a command string on one rover of a session. A command
// failure is not an error here: it is reported in the result, and the
// rover keeps the state reached before the failing command.
func (s *roverServiceImpl) Execute(ctx context.Context, sessionID string, rover int, commands string) (*ExecuteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	result, err := sess.Execute(rover, commands)
	if err != nil {
		return nil, err
	}
	result.State = sess.State()
	return result, nil
}

// RunMission runs each rover's configured command string, in mission order.
func (s *roverServiceImpl) RunMission(ctx context.Context, sessionID string) (*RunMissionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	out := &RunMissionResult{Results: make([]*ExecuteResult, 0, len(sess.Rovers))}
	for i, spec := range sess.Mission.Rovers {
		result, err := sess.Execute(i, spec.Commands)
		if err != nil {
			return nil, err
		}
		if !result.Success {
			out.Failed++
		}
		out.Results = append(out.Results, result)
	}
	out.State = sess.State()
	return out, nil
}

// Reset redeploys every rover of a session at its start state
func (s *roverServiceImpl) Reset(ctx context.Context, sessionID string) (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	if err := sess.Reset(); err != nil {
		return nil, err
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return sess.State(), nil
}

// GetState returns the current rover states of a session
func (s *roverServiceImpl) GetState(ctx context.Context, sessionID string) (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return sess.State(), nil
}

// GetHistory returns paginated command history for a session
func (s *roverServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.History
	if opts.Rover != nil {
		filtered := make([]HistoryEntry, 0, len(history))
		for _, e := range history {
			if e.Rover == *opts.Rover {
				filtered = append(filtered, e)
			}
		}
		history = filtered
	}
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	entries := []HistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			for i := total - 1 - start; i >= total-end; i-- {
				entries = append(entries, history[i])
			}
		} else {
			entries = append(entries, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Entries:     entries,
		Total:       total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// Run simulates a mission without creating a session.
func (s *roverServiceImpl) Run(ctx context.Context, mission *engine.Mission) (*RunResult, error) {
	reports, err := engine.Run(mission)
	if reports == nil && err != nil {
		return nil, err
	}

	result := &RunResult{Reports: reports, Output: []string{}}
	for i := range reports {
		r := &reports[i]
		if r.OK() {
			result.Output = append(result.Output, r.Final.String())
			continue
		}
		result.Errors = append(result.Errors, r.Error)
	}
	return result, nil
}

// ListMissions returns all available missions
func (s *roverServiceImpl) ListMissions(ctx context.Context) ([]*MissionInfo, error) {
	return s.missions.ListMissions()
}

// LoadMission loads a specific mission
func (s *roverServiceImpl) LoadMission(ctx context.Context, missionID string) (*engine.Mission, error) {
	return s.missions.LoadMission(missionID)
}

// SaveMission validates and stores a mission
func (s *roverServiceImpl) SaveMission(ctx context.Context, missionID string, mission *engine.Mission) error {
	if missionID == "" {
		return errors.New("mission id is required")
	}
	return s.missions.SaveMission(missionID, mission)
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		MissionID:      sess.MissionID,
		MissionName:    sess.Mission.Name,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          sess.State(),
		Mission:        sess.Mission,
	}
}
