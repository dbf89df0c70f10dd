package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zeebo/xxh3"
)

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID          string
	SourceText  string
	SourceLang  string
	TargetLang  string
	FinalText   string
	ServiceUsed string
	UsageCount  int
	LastUsed    time.Time
	CreatedAt   time.Time
}

// CacheStats summarises translation memory usage.
type CacheStats struct {
	TotalEntries int
	TotalUsage   int
}

// MemoryKey derives the memory row ID for a paragraph and language pair.
func MemoryKey(sourceText, sourceLang, targetLang string) string {
	h := xxh3.HashString(normalizeText(sourceText) + "\x00" + sourceLang + "\x00" + targetLang)
	return fmt.Sprintf("%016x", h)
}

// GetCachedTranslation looks up a remembered translation and bumps its usage.
func (s *Store) GetCachedTranslation(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error) {
	id := MemoryKey(sourceText, sourceLang, targetLang)

	var finalText string
	err := s.db.QueryRowContext(ctx,
		`SELECT final_text FROM translation_memory WHERE id = ?`, id).Scan(&finalText)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used_ms = ? WHERE id = ?`,
		toMillis(s.now()), id)
	return finalText, true, err
}

// SaveToMemory records a translation, replacing the text of an existing entry
// while keeping its usage count.
func (s *Store) SaveToMemory(ctx context.Context, sourceText, sourceLang, targetLang, finalText, serviceUsed string) error {
	now := toMillis(s.now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO translation_memory
			(id, source_text, source_lang, target_lang, final_text, service_used, usage_count, last_used_ms, created_ms)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			final_text = excluded.final_text,
			service_used = excluded.service_used,
			last_used_ms = excluded.last_used_ms`,
		MemoryKey(sourceText, sourceLang, targetLang), normalizeText(sourceText),
		sourceLang, targetLang, finalText, serviceUsed, now, now)
	return err
}

// ListMemory returns all entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_text, source_lang, target_lang, final_text, service_used, usage_count, last_used_ms, created_ms
		FROM translation_memory ORDER BY last_used_ms DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var (
			e                MemoryEntry
			lastUsed, create int64
		)
		if err := rows.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.FinalText,
			&e.ServiceUsed, &e.UsageCount, &lastUsed, &create); err != nil {
			return nil, err
		}
		e.LastUsed = fromMillis(lastUsed)
		e.CreatedAt = fromMillis(create)
		results = append(results, e)
	}
	return results, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(usage_count), 0) FROM translation_memory`).
		Scan(&stats.TotalEntries, &stats.TotalUsage)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// DeleteMemory permanently removes one entry.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("memory entry %s: %w", id, ErrNotFound)
	}
	return nil
}

// ClearMemory removes all entries and reports how many there were.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
