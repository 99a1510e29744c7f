package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/confagenda/store"
)

const agendaColumns = `id, user_id, is_active, generated_by, version, snapshot, total_sessions, favorites_count, created_ts, updated_ts`

func (d *DB) CreateAgenda(ctx context.Context, create *store.CreateAgenda) (*store.Agenda, error) {
	if create.Snapshot == nil {
		return nil, fmt.Errorf("agenda snapshot is required")
	}
	snapshot, err := store.MarshalSnapshot(create.Snapshot)
	if err != nil {
		return nil, err
	}
	totals := create.Snapshot.Totals()
	now := time.Now().Unix()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Deactivate and insert in one transaction; the partial unique index
	// rejects a concurrent insert that raced past the deactivation.
	if _, err := tx.ExecContext(ctx,
		`UPDATE agenda SET is_active = 0, updated_ts = `+placeholder(1)+` WHERE user_id = `+placeholder(2)+` AND is_active = 1`,
		now, create.UserID,
	); err != nil {
		return nil, fmt.Errorf("failed to deactivate agendas: %w", err)
	}

	agenda := &store.Agenda{
		ID:             create.ID,
		UserID:         create.UserID,
		IsActive:       true,
		GeneratedBy:    create.GeneratedBy,
		Version:        1,
		Snapshot:       create.Snapshot,
		TotalSessions:  int32(totals.TotalSessions),
		FavoritesCount: int32(totals.FavoritesCount),
		CreatedTs:      now,
		UpdatedTs:      now,
	}
	stmt := `INSERT INTO agenda (` + agendaColumns + `) VALUES (` + placeholders(10) + `)`
	if _, err := tx.ExecContext(ctx, stmt,
		agenda.ID, agenda.UserID, agenda.IsActive, agenda.GeneratedBy, agenda.Version, string(snapshot),
		agenda.TotalSessions, agenda.FavoritesCount, agenda.CreatedTs, agenda.UpdatedTs,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create agenda for user %s: %w", create.UserID, store.ErrActiveAgendaConflict)
		}
		return nil, fmt.Errorf("failed to create agenda: %w", err)
	}

	if err := insertAgendaVersion(ctx, tx, &store.AgendaVersion{
		ID:                create.VersionID,
		AgendaID:          agenda.ID,
		Version:           agenda.Version,
		ChangeDescription: create.ChangeDescription,
		ChangedBy:         create.ChangedBy,
		CreatedTs:         now,
	}, string(snapshot)); err != nil {
		return nil, err
	}
	if err := insertAgendaSessions(ctx, tx, create.Snapshot.SessionIndex(agenda.ID)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create agenda for user %s: %w", create.UserID, store.ErrActiveAgendaConflict)
		}
		return nil, fmt.Errorf("failed to commit agenda: %w", err)
	}
	return agenda, nil
}

func (d *DB) ListAgendas(ctx context.Context, find *store.FindAgenda) ([]*store.Agenda, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "agenda.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "agenda.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.IsActive; v != nil {
		where, args = append(where, "agenda.is_active = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT ` + agendaColumns + ` FROM agenda WHERE ` + strings.Join(where, " AND ") + ` ORDER BY agenda.created_ts DESC, agenda.id DESC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query agendas: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Agenda, 0)
	for rows.Next() {
		var agenda store.Agenda
		var snapshot string
		if err := rows.Scan(
			&agenda.ID,
			&agenda.UserID,
			&agenda.IsActive,
			&agenda.GeneratedBy,
			&agenda.Version,
			&snapshot,
			&agenda.TotalSessions,
			&agenda.FavoritesCount,
			&agenda.CreatedTs,
			&agenda.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan agenda: %w", err)
		}
		if agenda.Snapshot, err = store.UnmarshalSnapshot([]byte(snapshot)); err != nil {
			return nil, err
		}
		list = append(list, &agenda)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate agendas: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateAgenda(ctx context.Context, update *store.UpdateAgenda) (*store.Agenda, error) {
	if update.Snapshot == nil {
		return nil, fmt.Errorf("agenda snapshot is required")
	}
	snapshot, err := store.MarshalSnapshot(update.Snapshot)
	if err != nil {
		return nil, err
	}
	totals := update.Snapshot.Totals()
	now := time.Now().Unix()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	args := []any{string(snapshot), totals.TotalSessions, totals.FavoritesCount, now, update.ID}
	where := "id = " + placeholder(5)
	if v := update.ExpectedVersion; v != nil {
		where, args = where+" AND version = "+placeholder(6), append(args, *v)
	}
	stmt := `UPDATE agenda SET version = version + 1, snapshot = ` + placeholder(1) +
		`, total_sessions = ` + placeholder(2) + `, favorites_count = ` + placeholder(3) + `, updated_ts = ` + placeholder(4) +
		` WHERE ` + where + ` RETURNING id, user_id, is_active, generated_by, version, total_sessions, favorites_count, created_ts, updated_ts`

	agenda := &store.Agenda{Snapshot: update.Snapshot}
	if err := tx.QueryRowContext(ctx, stmt, args...).Scan(
		&agenda.ID,
		&agenda.UserID,
		&agenda.IsActive,
		&agenda.GeneratedBy,
		&agenda.Version,
		&agenda.TotalSessions,
		&agenda.FavoritesCount,
		&agenda.CreatedTs,
		&agenda.UpdatedTs,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, classifyMissedUpdate(ctx, tx, update.ID)
		}
		return nil, fmt.Errorf("failed to update agenda: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM agenda_session WHERE agenda_id = `+placeholder(1), agenda.ID); err != nil {
		return nil, fmt.Errorf("failed to clear agenda sessions: %w", err)
	}
	if err := insertAgendaSessions(ctx, tx, update.Snapshot.SessionIndex(agenda.ID)); err != nil {
		return nil, err
	}
	if update.CreateVersion {
		if err := insertAgendaVersion(ctx, tx, &store.AgendaVersion{
			ID:                update.VersionID,
			AgendaID:          agenda.ID,
			Version:           agenda.Version,
			ChangeDescription: update.ChangeDescription,
			ChangedBy:         update.ChangedBy,
			CreatedTs:         now,
		}, string(snapshot)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit agenda update: %w", err)
	}
	return agenda, nil
}

// classifyMissedUpdate tells a missing agenda apart from a stale expected version.
func classifyMissedUpdate(ctx context.Context, tx *sql.Tx, id string) error {
	var version int32
	err := tx.QueryRowContext(ctx, `SELECT version FROM agenda WHERE id = `+placeholder(1), id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("agenda %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get agenda version: %w", err)
	}
	return fmt.Errorf("agenda %s is at version %d: %w", id, version, store.ErrVersionConflict)
}

func (d *DB) DeleteAgenda(ctx context.Context, delete *store.DeleteAgenda) error {
	stmt := `UPDATE agenda SET is_active = 0, updated_ts = ` + placeholder(1) + ` WHERE id = ` + placeholder(2) + ` AND user_id = ` + placeholder(3)
	if _, err := d.db.ExecContext(ctx, stmt, time.Now().Unix(), delete.ID, delete.UserID); err != nil {
		return fmt.Errorf("failed to delete agenda: %w", err)
	}
	return nil
}

func insertAgendaVersion(ctx context.Context, tx *sql.Tx, version *store.AgendaVersion, snapshot string) error {
	stmt := `INSERT INTO agenda_version (id, agenda_id, version, snapshot, change_description, changed_by, created_ts)
		VALUES (` + placeholders(7) + `)`
	if _, err := tx.ExecContext(ctx, stmt,
		version.ID, version.AgendaID, version.Version, snapshot, version.ChangeDescription, version.ChangedBy, version.CreatedTs,
	); err != nil {
		return fmt.Errorf("failed to create agenda version: %w", err)
	}
	return nil
}

func (d *DB) ListAgendaVersions(ctx context.Context, find *store.FindAgendaVersion) ([]*store.AgendaVersion, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "agenda_version.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.AgendaID; v != nil {
		where, args = append(where, "agenda_version.agenda_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Version; v != nil {
		where, args = append(where, "agenda_version.version = "+placeholder(len(args)+1)), append(args, *v)
	}

	fields := []string{"id", "agenda_id", "version", "change_description", "changed_by", "created_ts"}
	if !find.ExcludeSnapshot {
		fields = append(fields, "snapshot")
	}
	query := `SELECT ` + strings.Join(fields, ", ") + ` FROM agenda_version WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY agenda_version.version DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query agenda versions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.AgendaVersion, 0)
	for rows.Next() {
		var version store.AgendaVersion
		var snapshot string
		dests := []any{
			&version.ID,
			&version.AgendaID,
			&version.Version,
			&version.ChangeDescription,
			&version.ChangedBy,
			&version.CreatedTs,
		}
		if !find.ExcludeSnapshot {
			dests = append(dests, &snapshot)
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("failed to scan agenda version: %w", err)
		}
		if !find.ExcludeSnapshot {
			if version.Snapshot, err = store.UnmarshalSnapshot([]byte(snapshot)); err != nil {
				return nil, err
			}
		}
		list = append(list, &version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate agenda versions: %w", err)
	}
	return list, nil
}

func (d *DB) ListAgendaSessions(ctx context.Context, find *store.FindAgendaSession) ([]*store.AgendaSession, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.AgendaID; v != nil {
		where, args = append(where, "agenda_session.agenda_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.SessionID; v != nil {
		where, args = append(where, "agenda_session.session_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT agenda_id, session_id, day_number, source, is_favorite, is_locked FROM agenda_session WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY agenda_session.day_number ASC, agenda_session.session_id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query agenda sessions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.AgendaSession, 0)
	for rows.Next() {
		var row store.AgendaSession
		if err := rows.Scan(
			&row.AgendaID,
			&row.SessionID,
			&row.DayNumber,
			&row.Source,
			&row.IsFavorite,
			&row.IsLocked,
		); err != nil {
			return nil, fmt.Errorf("failed to scan agenda session: %w", err)
		}
		list = append(list, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate agenda sessions: %w", err)
	}
	return list, nil
}

func (d *DB) ReplaceAgendaSessions(ctx context.Context, agendaID string, rows []*store.AgendaSession) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM agenda_session WHERE agenda_id = `+placeholder(1), agendaID); err != nil {
		return fmt.Errorf("failed to clear agenda sessions: %w", err)
	}
	if err := insertAgendaSessions(ctx, tx, rows); err != nil {
		return err
	}
	return tx.Commit()
}

func insertAgendaSessions(ctx context.Context, tx *sql.Tx, rows []*store.AgendaSession) error {
	if len(rows) == 0 {
		return nil
	}
	stmt := `INSERT INTO agenda_session (agenda_id, session_id, day_number, source, is_favorite, is_locked) VALUES (` + placeholders(6) + `)`
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, stmt, row.AgendaID, row.SessionID, row.DayNumber, row.Source, row.IsFavorite, row.IsLocked); err != nil {
			return fmt.Errorf("failed to insert agenda session %s: %w", row.SessionID, err)
		}
	}
	return nil
}
