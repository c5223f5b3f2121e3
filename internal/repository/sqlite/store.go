// Package sqlite provides a SQLite-backed guild store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/forgo/guilds/internal/model"
	"github.com/forgo/guilds/internal/repository/sqlite/migrations"
)

// Store persists guild records in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite guild store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := ensureForeignKeysEnabled(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

func ensureForeignKeysEnabled(ctx context.Context, db *sql.DB) error {
	var enabled int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("check sqlite foreign key pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("sqlite foreign keys are disabled")
	}
	return nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadAll returns every stored guild with its members, oldest first.
func (s *Store) LoadAll(ctx context.Context) ([]model.GuildRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, name, prefix, balance, prosperity, tier, vault_count,
		       residence, residence_perms, wins, losses, created_at
		  FROM guilds
		 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query guilds: %w", err)
	}
	defer rows.Close()

	var records []model.GuildRecord
	index := make(map[string]int)
	for rows.Next() {
		var (
			rec       model.GuildRecord
			perms     string
			createdAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Prefix, &rec.Balance, &rec.Prosperity,
			&rec.Tier, &rec.VaultCount, &rec.Residence, &perms, &rec.Wins, &rec.Losses, &createdAt); err != nil {
			return nil, fmt.Errorf("scan guild: %w", err)
		}
		if err := json.Unmarshal([]byte(perms), &rec.ResidencePerms); err != nil {
			return nil, fmt.Errorf("decode residence perms for %s: %w", rec.ID, err)
		}
		rec.CreatedAt = fromMillis(createdAt)
		index[rec.ID] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guilds: %w", err)
	}

	memberRows, err := s.sqlDB.QueryContext(ctx, `
		SELECT guild_id, player_id, role, joined_at
		  FROM guild_members
		 ORDER BY joined_at, player_id`)
	if err != nil {
		return nil, fmt.Errorf("query guild members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var (
			guildID  string
			m        model.MemberRecord
			joinedAt int64
		)
		if err := memberRows.Scan(&guildID, &m.PlayerID, &m.Role, &joinedAt); err != nil {
			return nil, fmt.Errorf("scan guild member: %w", err)
		}
		i, ok := index[guildID]
		if !ok {
			continue
		}
		m.JoinedAt = fromMillis(joinedAt)
		records[i].Members = append(records[i].Members, m)
	}
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guild members: %w", err)
	}
	return records, nil
}

// Save replaces the stored guild and its membership.
func (s *Store) Save(ctx context.Context, rec model.GuildRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("guild id is required")
	}
	perms := rec.ResidencePerms
	if perms == nil {
		perms = []string{}
	}
	permsJSON, err := json.Marshal(perms)
	if err != nil {
		return fmt.Errorf("encode residence perms: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO guilds (
		   id, name, prefix, balance, prosperity, tier, vault_count,
		   residence, residence_perms, wins, losses, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   prefix = excluded.prefix,
		   balance = excluded.balance,
		   prosperity = excluded.prosperity,
		   tier = excluded.tier,
		   vault_count = excluded.vault_count,
		   residence = excluded.residence,
		   residence_perms = excluded.residence_perms,
		   wins = excluded.wins,
		   losses = excluded.losses,
		   updated_at = excluded.updated_at`,
		rec.ID, rec.Name, rec.Prefix, rec.Balance, rec.Prosperity, rec.Tier, rec.VaultCount,
		rec.Residence, string(permsJSON), rec.Wins, rec.Losses,
		toMillis(rec.CreatedAt), toMillis(s.now()),
	); err != nil {
		return fmt.Errorf("upsert guild %s: %w", rec.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM guild_members WHERE guild_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clear members of %s: %w", rec.ID, err)
	}
	for _, m := range rec.Members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO guild_members (guild_id, player_id, role, joined_at) VALUES (?, ?, ?, ?)`,
			rec.ID, m.PlayerID, m.Role, toMillis(m.JoinedAt),
		); err != nil {
			return fmt.Errorf("insert member %s of %s: %w", m.PlayerID, rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save %s: %w", rec.ID, err)
	}
	return nil
}

// Delete removes a guild. Members cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM guilds WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete guild %s: %w", id, err)
	}
	return nil
}
