package service

import (
	"time"

	"github.com/wricardo/mcp-training/roversim/game/engine"
)

// SessionInfo provides information about a simulation session
type SessionInfo struct {
	ID             string          `json:"id"`
	MissionID      string          `json:"mission_id"`
	MissionName    string          `json:"mission_name"`
	CreatedAt      time.Time       `json:"created_at"`
	LastAccessedAt time.Time       `json:"last_accessed_at"`
	State          *SessionState   `json:"state"`
	Mission        *engine.Mission `json:"mission"`
}

// SessionState is a snapshot of every rover in a session
type SessionState struct {
	SessionID     string        `json:"session_id"`
	MissionID     string        `json:"mission_id"`
	Bounds        engine.Bounds `json:"bounds"`
	Rovers        []RoverStatus `json:"rovers"`
	TotalCommands int           `json:"total_commands"`
}

// RoverStatus is the current state of one rover
type RoverStatus struct {
	Index    int               `json:"index"`
	Name     string            `json:"name,omitempty"`
	State    engine.RoverState `json:"state"`
	Start    engine.RoverState `json:"start"`
	Commands string            `json:"commands,omitempty"` // configured in the mission
	Clamps   int               `json:"clamps"`
}

// ExecuteResult contains the outcome of running a command string on one rover
type ExecuteResult struct {
	Rover     int               `json:"rover"`
	Name      string            `json:"name,omitempty"`
	Success   bool              `json:"success"`
	Requested int               `json:"requested"`
	Executed  int               `json:"executed"`
	Clamps    int               `json:"clamps"`
	Final     engine.RoverState `json:"final"`
	Steps     []engine.Step     `json:"steps,omitempty"`
	Error     string            `json:"error,omitempty"`
	ErrorKind engine.ErrorKind  `json:"error_kind,omitempty"`
	State     *SessionState     `json:"state,omitempty"`
}

// RunMissionResult contains the outcome of running every configured command string of a session
type RunMissionResult struct {
	Results []*ExecuteResult `json:"results"`
	Failed  int              `json:"failed"`
	State   *SessionState    `json:"state"`
}

// RunResult contains the outcome of a stateless mission run
type RunResult struct {
	Reports []engine.Report `json:"reports"`
	Output  []string        `json:"output"` // "x y H" per rover that finished
	Errors  []string        `json:"errors,omitempty"`
}

// HistoryEntry records a single applied command
type HistoryEntry struct {
	Seq       int               `json:"seq"`
	Rover     int               `json:"rover"`
	Command   string            `json:"command"`
	From      engine.RoverState `json:"from"`
	To        engine.RoverState `json:"to"`
	Clamped   bool              `json:"clamped,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// HistoryOptions configures command history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
	Rover *int   `json:"rover,omitempty"`
}

// HistoryResponse contains paginated command history
type HistoryResponse struct {
	Entries     []HistoryEntry `json:"entries"`
	Total       int            `json:"total"`
	Page        int            `json:"page"`
	PageSize    int            `json:"page_size"`
	TotalPages  int            `json:"total_pages"`
	HasNext     bool           `json:"has_next"`
	HasPrevious bool           `json:"has_previous"`
}

// MissionInfo provides information about a mission file
type MissionInfo struct {
	Filename    string        `json:"filename"`
	MissionID   string        `json:"mission_id"` // The identifier to use for session creation
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Bounds      engine.Bounds `json:"bounds"`
	Rovers      int           `json:"rovers"`
}
