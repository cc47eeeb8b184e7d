package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
)

// EpisodeRepo reads the episode catalog.
//
// Schema: episodes(id PK, show_id FK, title, episode_number,
// air_date DATE, created_at, updated_at)
type EpisodeRepo struct {
	db *sql.DB
}

// NewEpisodeRepo returns an EpisodeRepo bound to the given database.
func NewEpisodeRepo(db *sql.DB) *EpisodeRepo { return &EpisodeRepo{db: db} }

const episodeColumns = `id, show_id, title, episode_number, air_date, created_at, updated_at`

func scanEpisode(row interface{ Scan(...any) error }) (*model.Episode, error) {
	var e model.Episode
	err := row.Scan(&e.ID, &e.ShowID, &e.Title, &e.EpisodeNumber,
		&e.AirDate, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByID returns an episode or ErrEpisodeNotFound.
func (r *EpisodeRepo) GetByID(ctx context.Context, id uint64) (*model.Episode, error) {
	e, err := scanEpisode(r.db.QueryRowContext(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrEpisodeNotFound
	}
	return e, err
}

// ListForShows returns the episodes of the given shows airing inside
// [from, to], ordered by air date then id.  The date range is
// inclusive on both ends.
func (r *EpisodeRepo) ListForShows(ctx context.Context, showIDs []uint64, from, to time.Time) ([]model.Episode, error) {
	if len(showIDs) == 0 {
		return nil, nil
	}
	q := `SELECT ` + episodeColumns + ` FROM episodes WHERE show_id IN (`
	args := make([]interface{}, 0, len(showIDs)+2)
	for i, id := range showIDs {
		if i > 0 {
			q += ","
		}
		q += "?"
		args = append(args, id)
	}
	q += `) AND air_date >= ? AND air_date <= ? ORDER BY air_date, id`
	args = append(args,
		from.UTC().Format("2006-01-02"),
		to.UTC().Format("2006-01-02"))
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
