package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/confagenda/store"
)

func (d *DB) UpsertSession(ctx context.Context, upsert *store.Session) (*store.Session, error) {
	tags, err := marshalStrings(upsert.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session tags: %w", err)
	}
	speakers := upsert.Speakers
	if speakers == nil {
		speakers = []store.SpeakerRef{}
	}
	speakersJSON, err := json.Marshal(speakers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session speakers: %w", err)
	}
	now := time.Now().Unix()

	stmt := `INSERT INTO session (id, title, description, start_ts, end_ts, location, track, format, level, tags, speakers, source_url, created_ts, updated_ts)
		VALUES (` + placeholders(14) + `)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			start_ts = EXCLUDED.start_ts,
			end_ts = EXCLUDED.end_ts,
			location = EXCLUDED.location,
			track = EXCLUDED.track,
			format = EXCLUDED.format,
			level = EXCLUDED.level,
			tags = EXCLUDED.tags,
			speakers = EXCLUDED.speakers,
			source_url = EXCLUDED.source_url,
			updated_ts = EXCLUDED.updated_ts
		RETURNING created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.ID, upsert.Title, upsert.Description, upsert.StartTs, upsert.EndTs, upsert.Location, upsert.Track,
		upsert.Format, upsert.Level, tags, string(speakersJSON), upsert.SourceURL, now, now,
	).Scan(&upsert.CreatedTs, &upsert.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to upsert session: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListSessions(ctx context.Context, find *store.FindSession) ([]*store.Session, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "session.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if find.IDs != nil {
		if len(find.IDs) == 0 {
			return []*store.Session{}, nil
		}
		var clause string
		clause, args = inClause("session.id", find.IDs, args)
		where = append(where, clause)
	}
	if v := find.Track; v != nil {
		where, args = append(where, "session.track = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.StartTsFrom; v != nil {
		where, args = append(where, "session.start_ts >= "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.StartTsTo; v != nil {
		where, args = append(where, "session.start_ts <= "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, title, description, start_ts, end_ts, location, track, format, level, tags, speakers, source_url, created_ts, updated_ts
		FROM session
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY session.start_ts ASC, session.id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Session, 0)
	for rows.Next() {
		var session store.Session
		var tags, speakers string
		if err := rows.Scan(
			&session.ID,
			&session.Title,
			&session.Description,
			&session.StartTs,
			&session.EndTs,
			&session.Location,
			&session.Track,
			&session.Format,
			&session.Level,
			&tags,
			&speakers,
			&session.SourceURL,
			&session.CreatedTs,
			&session.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if session.Tags, err = unmarshalStrings(tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session tags: %w", err)
		}
		session.Speakers = []store.SpeakerRef{}
		if speakers != "" {
			if err := json.Unmarshal([]byte(speakers), &session.Speakers); err != nil {
				return nil, fmt.Errorf("failed to unmarshal session speakers: %w", err)
			}
		}
		list = append(list, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return list, nil
}

func (d *DB) UpsertSpeaker(ctx context.Context, upsert *store.Speaker) (*store.Speaker, error) {
	expertise, err := marshalStrings(upsert.Expertise)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal speaker expertise: %w", err)
	}
	achievements, err := marshalStrings(upsert.Achievements)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal speaker achievements: %w", err)
	}
	now := time.Now().Unix()

	stmt := `INSERT INTO speaker (id, name, bio, company, role, image_url, linkedin_url, twitter_url, website_url, profile_summary, company_profile, expertise, achievements, created_ts, updated_ts)
		VALUES (` + placeholders(15) + `)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			bio = EXCLUDED.bio,
			company = EXCLUDED.company,
			role = EXCLUDED.role,
			image_url = EXCLUDED.image_url,
			linkedin_url = EXCLUDED.linkedin_url,
			twitter_url = EXCLUDED.twitter_url,
			website_url = EXCLUDED.website_url,
			profile_summary = EXCLUDED.profile_summary,
			company_profile = EXCLUDED.company_profile,
			expertise = EXCLUDED.expertise,
			achievements = EXCLUDED.achievements,
			updated_ts = EXCLUDED.updated_ts
		RETURNING created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.ID, upsert.Name, upsert.Bio, upsert.Company, upsert.Role, upsert.ImageURL, upsert.LinkedinURL,
		upsert.TwitterURL, upsert.WebsiteURL, upsert.ProfileSummary, upsert.CompanyProfile, expertise, achievements, now, now,
	).Scan(&upsert.CreatedTs, &upsert.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to upsert speaker: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListSpeakers(ctx context.Context, find *store.FindSpeaker) ([]*store.Speaker, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "speaker.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if find.IDs != nil {
		if len(find.IDs) == 0 {
			return []*store.Speaker{}, nil
		}
		var clause string
		clause, args = inClause("speaker.id", find.IDs, args)
		where = append(where, clause)
	}

	query := `SELECT id, name, bio, company, role, image_url, linkedin_url, twitter_url, website_url, profile_summary, company_profile, expertise, achievements, created_ts, updated_ts
		FROM speaker
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY speaker.name ASC, speaker.id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query speakers: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Speaker, 0)
	for rows.Next() {
		var speaker store.Speaker
		var expertise, achievements string
		if err := rows.Scan(
			&speaker.ID,
			&speaker.Name,
			&speaker.Bio,
			&speaker.Company,
			&speaker.Role,
			&speaker.ImageURL,
			&speaker.LinkedinURL,
			&speaker.TwitterURL,
			&speaker.WebsiteURL,
			&speaker.ProfileSummary,
			&speaker.CompanyProfile,
			&expertise,
			&achievements,
			&speaker.CreatedTs,
			&speaker.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan speaker: %w", err)
		}
		if speaker.Expertise, err = unmarshalStrings(expertise); err != nil {
			return nil, fmt.Errorf("failed to unmarshal speaker expertise: %w", err)
		}
		if speaker.Achievements, err = unmarshalStrings(achievements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal speaker achievements: %w", err)
		}
		list = append(list, &speaker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate speakers: %w", err)
	}
	return list, nil
}
