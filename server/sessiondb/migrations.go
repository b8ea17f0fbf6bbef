package sessiondb

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE access_key(
			id INTEGER PRIMARY KEY,
			key_code TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at INT NOT NULL
		);
		CREATE UNIQUE INDEX idx_access_key_key_code ON access_key (key_code);

		CREATE TABLE active_session(
			id INTEGER PRIMARY KEY,
			key_id INT NOT NULL REFERENCES access_key(id) ON DELETE CASCADE,
			device_fingerprint TEXT NOT NULL,
			ip_address TEXT,
			user_agent TEXT,
			last_heartbeat INT NOT NULL
		);
		CREATE INDEX idx_active_session_key_id ON active_session (key_id);
		CREATE INDEX idx_active_session_last_heartbeat ON active_session (last_heartbeat);
	`))

	return migs
}
