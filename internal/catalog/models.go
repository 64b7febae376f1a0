package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/7ipolito/goals-vision/internal/motion"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

const (
	RolePlayer = "player"
	RoleCoach  = "coach"

	FootRight = "right"
	FootLeft  = "left"
	FootBoth  = "both"

	PositionGoalkeeper = "goalkeeper"
	PositionDefender   = "defender"
	PositionMidfielder = "midfielder"
	PositionForward    = "forward"

	VideoKindHighlight = "highlight"
	VideoKindGingado   = "gingado"

	JobTypeAnalyze = "analyze"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"

	AnalysisStatusCompleted    = "completed"
	AnalysisStatusInconclusive = "inconclusive"

	AnalysisSourceVideo = "video"
	AnalysisSourceLive  = "live"
)

// Positions lists the valid player positions in pitch order.
var Positions = []string{PositionGoalkeeper, PositionDefender, PositionMidfielder, PositionForward}

// Feet lists the valid dominant foot values.
var Feet = []string{FootRight, FootLeft, FootBoth}

type Player struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	DominantFoot string    `json:"dominant_foot"`
	Position     string    `json:"position"`
	Picture      string    `json:"picture,omitempty"`
	Role         string    `json:"role"`
	JoinedAt     time.Time `json:"joined_at"`
}

// Validate checks the profile fields a player must carry.
func (p *Player) Validate() error {
	name := strings.TrimSpace(p.Name)
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case len(name) > 100:
		return fmt.Errorf("%w: name must be at most 100 characters", ErrValidation)
	case p.Age < 1 || p.Age > 99:
		return fmt.Errorf("%w: age must be between 1 and 99", ErrValidation)
	case !slices.Contains(Feet, p.DominantFoot):
		return fmt.Errorf("%w: dominant_foot must be one of %s", ErrValidation, strings.Join(Feet, ", "))
	case !slices.Contains(Positions, p.Position):
		return fmt.Errorf("%w: position must be one of %s", ErrValidation, strings.Join(Positions, ", "))
	case p.Role != RolePlayer && p.Role != RoleCoach:
		return fmt.Errorf("%w: role must be player or coach", ErrValidation)
	}
	return nil
}

// PlayerUpdate is a partial update; nil fields are left unchanged.
type PlayerUpdate struct {
	Name         *string `json:"name,omitempty"`
	Age          *int    `json:"age,omitempty"`
	DominantFoot *string `json:"dominant_foot,omitempty"`
	Position     *string `json:"position,omitempty"`
	Picture      *string `json:"picture,omitempty"`
}

func (u PlayerUpdate) apply(p *Player) {
	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	if u.DominantFoot != nil {
		p.DominantFoot = *u.DominantFoot
	}
	if u.Position != nil {
		p.Position = *u.Position
	}
	if u.Picture != nil {
		p.Picture = *u.Picture
	}
}

const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortYoungest  = "youngest"
	SortOldestAge = "oldest_age"

	defaultPageSize = 20
	maxPageSize     = 100
)

// ListOptions filters and pages a player listing.
type ListOptions struct {
	Search   string
	Sort     string
	Position string
	Role     string
	MinAge   int
	MaxAge   int
	Page     int
	PageSize int
}

func (o *ListOptions) normalize() error {
	if o.Sort == "" {
		o.Sort = SortNewest
	}
	if _, ok := sortClauses[o.Sort]; !ok {
		return fmt.Errorf("%w: unknown sort %q", ErrValidation, o.Sort)
	}
	if o.Position != "" && !slices.Contains(Positions, o.Position) {
		return fmt.Errorf("%w: unknown position %q", ErrValidation, o.Position)
	}
	if o.MinAge < 0 || o.MaxAge < 0 || (o.MaxAge > 0 && o.MinAge > o.MaxAge) {
		return fmt.Errorf("%w: invalid age range", ErrValidation)
	}
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	if o.PageSize > maxPageSize {
		o.PageSize = maxPageSize
	}
	return nil
}

// PlayerPage is one page of a player listing.
type PlayerPage struct {
	Players []*Player `json:"players"`
	Total   int       `json:"total"`
	IsNext  bool      `json:"is_next"`
}

// PlayerStats aggregates the player base.
type PlayerStats struct {
	Total          int            `json:"total"`
	AverageAge     int            `json:"average_age"`
	ByPosition     map[string]int `json:"by_position"`
	ByDominantFoot map[string]int `json:"by_dominant_foot"`
}

type Video struct {
	ID          string    `json:"id"`
	PlayerID    string    `json:"player_id"`
	Kind        string    `json:"kind"`
	Path        string    `json:"path"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	Mtime       time.Time `json:"mtime"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	PlayerID  string    `json:"player_id,omitempty"`
	VideoID   string    `json:"video_id,omitempty"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Analysis is a persisted agility result for one player.
type Analysis struct {
	ID       string `json:"id"`
	PlayerID string `json:"player_id"`
	VideoID  string `json:"video_id,omitempty"`
	JobID    string `json:"job_id,omitempty"`
	Source   string `json:"source"`
	Status   string `json:"status"`

	motion.AgilitySummary
	motion.Counters

	ModelVersion string    `json:"model_version,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Conclusive reports whether the analysis carries real metrics.
func (a *Analysis) Conclusive() bool {
	return a.Status == AnalysisStatusCompleted
}

// NewAnalysis builds an Analysis from a motion result.
func NewAnalysis(playerID, source string, res motion.Result, counters motion.Counters) *Analysis {
	a := &Analysis{
		ID:        NewID(),
		PlayerID:  playerID,
		Source:    source,
		Status:    AnalysisStatusCompleted,
		Counters:  counters,
		CreatedAt: time.Now().UTC(),
	}
	if res.Inconclusive {
		a.Status = AnalysisStatusInconclusive
	} else {
		a.AgilitySummary = res.Summary
	}
	return a
}

type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
}

func NewID() string {
	return uuid.NewString()
}

func IsVideoFile(filename string) bool {
	return VideoExtensions[strings.ToLower(filepath.Ext(filename))]
}
