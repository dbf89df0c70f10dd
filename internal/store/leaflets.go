package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/valpere/leaftran/internal"
)

// SaveLeaflet inserts l or replaces the stored leaflet with the same ID.
func (s *Store) SaveLeaflet(ctx context.Context, l internal.Leaflet) error {
	if l.ID == "" {
		return errors.New("leaflet id required")
	}
	sections, err := json.Marshal(l.Sections)
	if err != nil {
		return fmt.Errorf("failed to encode sections: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leaflets (id, name, created_ms, sections, next_section_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			created_ms = excluded.created_ms,
			sections = excluded.sections,
			next_section_id = excluded.next_section_id`,
		l.ID, l.Name, toMillis(l.Date), string(sections), l.NextSectionID)
	return err
}

func (s *Store) GetLeaflet(ctx context.Context, id string) (internal.Leaflet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_ms, sections, next_section_id FROM leaflets WHERE id = ?`, id)
	l, err := scanLeaflet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return internal.Leaflet{}, fmt.Errorf("leaflet %s: %w", id, ErrNotFound)
	}
	return l, err
}

// ListLeaflets returns every leaflet, newest first.
func (s *Store) ListLeaflets(ctx context.Context) ([]internal.Leaflet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_ms, sections, next_section_id FROM leaflets ORDER BY created_ms DESC, rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leaflets := []internal.Leaflet{}
	for rows.Next() {
		l, err := scanLeaflet(rows)
		if err != nil {
			return nil, err
		}
		leaflets = append(leaflets, l)
	}
	return leaflets, rows.Err()
}

// DeleteLeaflet removes the leaflet, returning ErrNotFound if there was none.
func (s *Store) DeleteLeaflet(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leaflets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("leaflet %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLeaflet(row scanner) (internal.Leaflet, error) {
	var (
		l        internal.Leaflet
		created  int64
		sections string
	)
	if err := row.Scan(&l.ID, &l.Name, &created, &sections, &l.NextSectionID); err != nil {
		return internal.Leaflet{}, err
	}
	l.Date = fromMillis(created)
	if err := json.Unmarshal([]byte(sections), &l.Sections); err != nil {
		return internal.Leaflet{}, fmt.Errorf("leaflet %s: corrupt sections: %w", l.ID, err)
	}
	return l, nil
}
