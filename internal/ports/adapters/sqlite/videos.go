package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/forPelevin/clipline/internal/types"
)

const videoColumns = "id, title, channel_name, channel_id, published_at, context, transcript, status, error_message, created_at, updated_at"

func scanVideo(scanner interface{ Scan(dest ...any) error }) (*types.Video, error) {
	var (
		v            types.Video
		publishedRaw sql.NullString
		transcript   sql.NullString
		statusStr    string
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&v.ID,
		&v.Title,
		&v.ChannelName,
		&v.ChannelID,
		&publishedRaw,
		&v.Context,
		&transcript,
		&statusStr,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	if transcript.Valid && transcript.String != "" {
		if err := json.Unmarshal([]byte(transcript.String), &v.Transcript); err != nil {
			return nil, fmt.Errorf("decode transcript of %s: %w", v.ID, err)
		}
	}
	v.Status = types.VideoStatus(statusStr)
	v.ErrorMessage = errorMessage.String
	v.PublishedAt = parseTime(publishedRaw)
	v.CreatedAt = parseTime(createdRaw)
	v.UpdatedAt = parseTime(updatedRaw)
	return &v, nil
}

// GetVideo returns nil, nil when no row exists.
func (s *Store) GetVideo(ctx context.Context, id string) (*types.Video, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+videoColumns+" FROM videos WHERE id = ?", id)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", id, err)
	}
	return v, nil
}

func (s *Store) InsertVideo(ctx context.Context, v *types.Video) error {
	if v == nil {
		return fmt.Errorf("%w: nil video", types.ErrValidation)
	}
	var transcript any
	if v.Transcript != nil {
		b, err := json.Marshal(v.Transcript)
		if err != nil {
			return fmt.Errorf("encode transcript: %w", err)
		}
		transcript = string(b)
	}
	status := v.Status
	if status == "" {
		status = types.VideoPending
	}
	now := s.now().UTC()
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO videos (`+videoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.Title, v.ChannelName, v.ChannelID, formatTime(v.PublishedAt), v.Context,
			transcript, string(status), nullableString(v.ErrorMessage), formatTime(now), formatTime(now),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert video %s: %w", v.ID, err)
	}
	v.Status = status
	v.CreatedAt, v.UpdatedAt = now, now
	return nil
}

func (s *Store) ListVideos(ctx context.Context) ([]types.Video, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+videoColumns+" FROM videos ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var out []types.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// SetVideoTranscript stores tr and marks the video transcribed.
func (s *Store) SetVideoTranscript(ctx context.Context, id string, tr types.Transcript) error {
	b, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	return s.execOne(ctx, notFound("video", id),
		`UPDATE videos SET transcript = ?, status = ?, error_message = NULL, updated_at = ? WHERE id = ?`,
		string(b), string(types.VideoTranscribed), s.timestamp(), id,
	)
}

func (s *Store) SetVideoStatus(ctx context.Context, id string, status types.VideoStatus, errMsg string) error {
	return s.execOne(ctx, notFound("video", id),
		`UPDATE videos SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(status), nullableString(errMsg), s.timestamp(), id,
	)
}

// DeleteVideo removes the video; clips and posts go with it.
func (s *Store) DeleteVideo(ctx context.Context, id string) error {
	return s.execOne(ctx, notFound("video", id), `DELETE FROM videos WHERE id = ?`, id)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", types.ErrNotFound, kind, id)
}
