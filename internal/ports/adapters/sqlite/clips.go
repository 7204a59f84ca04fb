package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/forPelevin/clipline/internal/ports"
	"github.com/forPelevin/clipline/internal/types"
)

const clipColumns = "id, video_id, start_time, end_time, llm_reason, proposed_title, summary, status, srt, stt_response, error_message, post_url, post_id, created_at, updated_at"

func scanClip(scanner interface{ Scan(dest ...any) error }) (*types.Clip, error) {
	var (
		c            types.Clip
		statusStr    string
		srt          sql.NullString
		sttResponse  sql.NullString
		errorMessage sql.NullString
		postURL      sql.NullString
		postID       sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&c.ID,
		&c.VideoID,
		&c.StartTime,
		&c.EndTime,
		&c.Reason,
		&c.Title,
		&c.Summary,
		&statusStr,
		&srt,
		&sttResponse,
		&errorMessage,
		&postURL,
		&postID,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	c.Status = types.ClipStatus(statusStr)
	c.SRT = srt.String
	c.STTResponse = sttResponse.String
	c.ErrorMessage = errorMessage.String
	c.PostURL = postURL.String
	c.PostID = postID.String
	c.CreatedAt = parseTime(createdRaw)
	c.UpdatedAt = parseTime(updatedRaw)
	return &c, nil
}

// InsertClips stores all clips in one transaction; either every row lands or none.
func (s *Store) InsertClips(ctx context.Context, clips []types.Clip) error {
	if len(clips) == 0 {
		return nil
	}
	ts := s.timestamp()
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin insert clips: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		for _, c := range clips {
			status := c.Status
			if status == "" {
				status = types.ClipPending
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO clips (`+clipColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.ID, c.VideoID, c.StartTime, c.EndTime, c.Reason, c.Title, c.Summary, string(status),
				nullableString(c.SRT), nullableString(c.STTResponse), nullableString(c.ErrorMessage),
				nullableString(c.PostURL), nullableString(c.PostID), ts, ts,
			); err != nil {
				return fmt.Errorf("insert clip %s: %w", c.ID, err)
			}
		}
		return tx.Commit()
	})
}

// GetClip returns nil, nil when no row exists.
func (s *Store) GetClip(ctx context.Context, id string) (*types.Clip, error) {
	c, err := scanClip(s.db.QueryRowContext(ctx, "SELECT "+clipColumns+" FROM clips WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clip %s: %w", id, err)
	}
	return c, nil
}

func (s *Store) ListClipsByVideo(ctx context.Context, videoID string) ([]types.Clip, error) {
	return s.queryClips(ctx,
		"SELECT "+clipColumns+" FROM clips WHERE video_id = ? ORDER BY start_time ASC", videoID)
}

func (s *Store) ListClips(ctx context.Context, f ports.ClipFilter) ([]types.Clip, error) {
	query := "SELECT " + clipColumns + " FROM clips"
	var args []any
	if f.Status != "" {
		query += " WHERE status = ?"
		args = append(args, string(f.Status))
	}
	col := "created_at"
	if f.SortBy == "updated" {
		col = "updated_at"
	}
	dir := "DESC"
	if f.Ascending {
		dir = "ASC"
	}
	query += " ORDER BY " + col + " " + dir
	return s.queryClips(ctx, query, args...)
}

func (s *Store) queryClips(ctx context.Context, query string, args ...any) ([]types.Clip, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	var out []types.Clip
	for rows.Next() {
		c, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateClipTimings(ctx context.Context, timings []types.ClipTiming) ([]types.Clip, error) {
	var out []types.Clip
	err := retryOnBusy(ctx, func() error {
		out = out[:0]
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin update timings: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		ts := s.timestamp()
		for _, t := range timings {
			res, err := tx.ExecContext(ctx,
				`UPDATE clips SET start_time = ?, end_time = ?, updated_at = ? WHERE id = ?`,
				t.StartTime, t.EndTime, ts, t.ID,
			)
			if err != nil {
				return fmt.Errorf("update timing of clip %s: %w", t.ID, err)
			}
			if n, err := res.RowsAffected(); err != nil {
				return err
			} else if n == 0 {
				return notFound("clip", t.ID)
			}
			c, err := scanClip(tx.QueryRowContext(ctx, "SELECT "+clipColumns+" FROM clips WHERE id = ?", t.ID))
			if err != nil {
				return fmt.Errorf("reload clip %s: %w", t.ID, err)
			}
			out = append(out, *c)
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SetClipSTTResponse(ctx context.Context, id, raw string) error {
	return s.execOne(ctx, notFound("clip", id),
		`UPDATE clips SET stt_response = ?, updated_at = ? WHERE id = ?`, nullableString(raw), s.timestamp(), id)
}

func (s *Store) SetClipSRT(ctx context.Context, id, srt string) error {
	return s.execOne(ctx, notFound("clip", id),
		`UPDATE clips SET srt = ?, updated_at = ? WHERE id = ?`, nullableString(srt), s.timestamp(), id)
}

func (s *Store) SetClipSummary(ctx context.Context, id, summary string) error {
	return s.execOne(ctx, notFound("clip", id),
		`UPDATE clips SET summary = ?, updated_at = ? WHERE id = ?`, summary, s.timestamp(), id)
}

func (s *Store) SetClipStatus(ctx context.Context, id string, status types.ClipStatus, errMsg string) error {
	return s.execOne(ctx, notFound("clip", id),
		`UPDATE clips SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(status), nullableString(errMsg), s.timestamp(), id)
}

func (s *Store) DeleteClip(ctx context.Context, id string) error {
	return s.execOne(ctx, notFound("clip", id), `DELETE FROM clips WHERE id = ?`, id)
}
