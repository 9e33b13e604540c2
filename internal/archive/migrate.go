package archive

import (
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Migration is one schema step. Up runs inside a transaction.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

func (db *DB) userVersion() (int, error) {
	var version int
	err := db.conn.QueryRow("PRAGMA user_version").Scan(&version)
	return version, err
}

func (db *DB) setUserVersion(version int) error {
	_, err := db.conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", version))
	return err
}

// migrate applies all migrations newer than the schema's recorded
// version, in order.
func (db *DB) migrate() error {
	current, err := db.userVersion()
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		log.WithFields(log.Fields{
			"version":     m.Version,
			"description": m.Description,
		}).Debug("applying migration")

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: %w", m.Version, err)
		}
		if err := m.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", m.Version, err)
		}
		// The modernc driver rejects PRAGMA user_version inside a
		// transaction, so the version is bumped after the commit.
		if err := db.setUserVersion(m.Version); err != nil {
			return fmt.Errorf("migration %d: %w", m.Version, err)
		}
	}
	return nil
}
