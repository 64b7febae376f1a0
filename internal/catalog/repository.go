package catalog

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"
)

type Repository interface {
	CreatePlayer(ctx context.Context, p *Player) error
	GetPlayer(ctx context.Context, id string) (*Player, error)
	UpdatePlayer(ctx context.Context, p *Player) error
	DeletePlayer(ctx context.Context, id string) error
	ListPlayers(ctx context.Context, opts ListOptions) ([]*Player, int, error)
	PlayerStats(ctx context.Context) (*PlayerStats, error)

	CreateVideo(ctx context.Context, v *Video) error
	GetVideo(ctx context.Context, id string) (*Video, error)
	GetVideoByPath(ctx context.Context, playerID, path string) (*Video, error)
	ListVideosByPlayer(ctx context.Context, playerID string) ([]*Video, error)
	CountVideos(ctx context.Context) (int, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	ListActiveJobsForVideo(ctx context.Context, videoID string) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error

	CreateAnalysis(ctx context.Context, a *Analysis) error
	GetAnalysis(ctx context.Context, id string) (*Analysis, error)
	ListAnalysesByPlayer(ctx context.Context, playerID string) ([]*Analysis, error)
	CountAnalyses(ctx context.Context) (int, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

var sortClauses = map[string]string{
	SortNewest:    "joined_at DESC, id",
	SortOldest:    "joined_at ASC, id",
	SortYoungest:  "age ASC, joined_at DESC, id",
	SortOldestAge: "age DESC, joined_at DESC, id",
}

const playerColumns = "id, name, age, dominant_foot, position, picture, role, joined_at"

func (r *SQLiteRepository) CreatePlayer(ctx context.Context, p *Player) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO players (`+playerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Age, p.DominantFoot, p.Position, nullString(p.Picture), p.Role, formatTime(p.JoinedAt))
	return err
}

func (r *SQLiteRepository) GetPlayer(ctx context.Context, id string) (*Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *SQLiteRepository) UpdatePlayer(ctx context.Context, p *Player) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE players SET name = ?, age = ?, dominant_foot = ?, position = ?, picture = ?
		WHERE id = ?
	`, p.Name, p.Age, p.DominantFoot, p.Position, nullString(p.Picture), p.ID)
	return err
}

func (r *SQLiteRepository) DeletePlayer(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM players WHERE id = ?", id)
	return err
}

// ListPlayers returns one page of players matching opts and the total number
// of matches. opts must already be normalised.
func (r *SQLiteRepository) ListPlayers(ctx context.Context, opts ListOptions) ([]*Player, int, error) {
	var (
		where []string
		args  []any
	)
	if opts.Role != "" {
		where = append(where, "role = ?")
		args = append(args, opts.Role)
	}
	if opts.Search != "" {
		where = append(where, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(opts.Search)+"%")
	}
	if opts.Position != "" {
		where = append(where, "position = ?")
		args = append(args, opts.Position)
	}
	if opts.MinAge > 0 {
		where = append(where, "age >= ?")
		args = append(args, opts.MinAge)
	}
	if opts.MaxAge > 0 {
		where = append(where, "age <= ?")
		args = append(args, opts.MaxAge)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM players"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order, ok := sortClauses[opts.Sort]
	if !ok {
		order = sortClauses[SortNewest]
	}
	query := "SELECT " + playerColumns + " FROM players" + clause + " ORDER BY " + order + " LIMIT ? OFFSET ?"
	pageArgs := append(append([]any{}, args...), opts.PageSize, (opts.Page-1)*opts.PageSize)

	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var players []*Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, 0, err
		}
		players = append(players, p)
	}
	return players, total, rows.Err()
}

func (r *SQLiteRepository) PlayerStats(ctx context.Context) (*PlayerStats, error) {
	stats := &PlayerStats{
		ByPosition:     make(map[string]int, len(Positions)),
		ByDominantFoot: make(map[string]int, len(Feet)),
	}
	for _, p := range Positions {
		stats.ByPosition[p] = 0
	}
	for _, f := range Feet {
		stats.ByDominantFoot[f] = 0
	}

	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), AVG(age) FROM players WHERE role = ?", RolePlayer,
	).Scan(&stats.Total, &avg)
	if err != nil {
		return nil, err
	}
	if avg.Valid {
		stats.AverageAge = int(math.Round(avg.Float64))
	}

	if err := r.countBy(ctx, "position", stats.ByPosition); err != nil {
		return nil, err
	}
	if err := r.countBy(ctx, "dominant_foot", stats.ByDominantFoot); err != nil {
		return nil, err
	}
	return stats, nil
}

// countBy fills counts with the number of players per value of column.
// column is always a compile-time constant.
func (r *SQLiteRepository) countBy(ctx context.Context, column string, counts map[string]int) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+column+", COUNT(*) FROM players WHERE role = ? GROUP BY "+column, RolePlayer)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		counts[key] = n
	}
	return rows.Err()
}

const videoColumns = "id, player_id, kind, path, filename, size, mtime, fingerprint, created_at"

func (r *SQLiteRepository) CreateVideo(ctx context.Context, v *Video) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO videos (`+videoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ID, v.PlayerID, v.Kind, v.Path, v.Filename, v.Size, formatTime(v.Mtime), v.Fingerprint, formatTime(v.CreatedAt))
	return err
}

func (r *SQLiteRepository) GetVideo(ctx context.Context, id string) (*Video, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func (r *SQLiteRepository) GetVideoByPath(ctx context.Context, playerID, path string) (*Video, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE player_id = ? AND path = ?`, playerID, path)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func (r *SQLiteRepository) ListVideosByPlayer(ctx context.Context, playerID string) ([]*Video, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE player_id = ? ORDER BY created_at DESC`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (r *SQLiteRepository) CountVideos(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos").Scan(&count)
	return count, err
}

const jobColumns = "id, type, status, player_id, video_id, progress, error, created_at, updated_at"

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, j.Status, nullString(j.PlayerID), nullString(j.VideoID),
		j.Progress, nullString(j.Error),
		formatTime(j.CreatedAt), formatTime(j.UpdatedAt))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return j, err
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status = 'pending' ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (r *SQLiteRepository) ListActiveJobsForVideo(ctx context.Context, videoID string) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE video_id = ? AND status IN ('pending', 'running') ORDER BY created_at ASC`,
		videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, nullString(errorMsg), formatTime(time.Now()), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = ? WHERE id = ?
	`, progress, formatTime(time.Now()), id)
	return err
}

const analysisColumns = `id, player_id, video_id, job_id, source, status,
	lateral_movement_count, coordination_score, agility_score, average_lateral_speed, total_duration_seconds,
	frames_seen, frames_without_pose, frames_dropped, records, model_version, created_at`

func (r *SQLiteRepository) CreateAnalysis(ctx context.Context, a *Analysis) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analyses (`+analysisColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.PlayerID, nullString(a.VideoID), nullString(a.JobID), a.Source, a.Status,
		a.LateralMovementCount, a.CoordinationScore, a.AgilityScore, a.AverageLateralSpeed, a.TotalDurationSeconds,
		a.FramesSeen, a.FramesWithoutPose, a.FramesDropped, a.Records, nullString(a.ModelVersion),
		formatTime(a.CreatedAt))
	return err
}

func (r *SQLiteRepository) GetAnalysis(ctx context.Context, id string) (*Analysis, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE id = ?`, id)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// ListAnalysesByPlayer returns a player's analyses oldest first.
func (r *SQLiteRepository) ListAnalysesByPlayer(ctx context.Context, playerID string) ([]*Analysis, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE player_id = ? ORDER BY created_at ASC`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CountAnalyses(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses").Scan(&count)
	return count, err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(s scanner) (*Player, error) {
	var p Player
	var picture sql.NullString
	var joinedAt string
	if err := s.Scan(&p.ID, &p.Name, &p.Age, &p.DominantFoot, &p.Position, &picture, &p.Role, &joinedAt); err != nil {
		return nil, err
	}
	p.Picture = picture.String
	p.JoinedAt = parseTime(joinedAt)
	return &p, nil
}

func scanVideo(s scanner) (*Video, error) {
	var v Video
	var mtime, createdAt string
	if err := s.Scan(&v.ID, &v.PlayerID, &v.Kind, &v.Path, &v.Filename, &v.Size, &mtime, &v.Fingerprint, &createdAt); err != nil {
		return nil, err
	}
	v.Mtime = parseTime(mtime)
	v.CreatedAt = parseTime(createdAt)
	return &v, nil
}

func scanJob(s scanner) (*Job, error) {
	var j Job
	var playerID, videoID, errMsg sql.NullString
	var createdAt, updatedAt string
	if err := s.Scan(&j.ID, &j.Type, &j.Status, &playerID, &videoID, &j.Progress, &errMsg, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	j.PlayerID = playerID.String
	j.VideoID = videoID.String
	j.Error = errMsg.String
	j.CreatedAt = parseTime(createdAt)
	j.UpdatedAt = parseTime(updatedAt)
	return &j, nil
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func scanAnalysis(s scanner) (*Analysis, error) {
	var a Analysis
	var videoID, jobID, modelVersion sql.NullString
	var createdAt string
	err := s.Scan(&a.ID, &a.PlayerID, &videoID, &jobID, &a.Source, &a.Status,
		&a.LateralMovementCount, &a.CoordinationScore, &a.AgilityScore, &a.AverageLateralSpeed, &a.TotalDurationSeconds,
		&a.FramesSeen, &a.FramesWithoutPose, &a.FramesDropped, &a.Records, &modelVersion, &createdAt)
	if err != nil {
		return nil, err
	}
	a.VideoID = videoID.String
	a.JobID = jobID.String
	a.ModelVersion = modelVersion.String
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
