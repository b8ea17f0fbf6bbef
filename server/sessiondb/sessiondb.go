// Package sessiondb owns the access key and active session tables, and the
// notification hub that tells a connected device when its session has been
// deleted out from under it.
package sessiondb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"gorm.io/gorm"
)

type SessionDB struct {
	Log      logs.Log
	DB       *gorm.DB
	Notifier *Notifier

	// Serializes login admission, so the check for another live session and
	// the insert of the new session act as one atomic step. See Admit.
	admitLock sync.Mutex
}

func NewSessionDB(logger logs.Log, config dbh.DBConfig) (*SessionDB, error) {
	if config.Driver == dbh.DriverSqlite {
		os.MkdirAll(filepath.Dir(config.Database), 0777)
		// Foreign keys are off by default in sqlite. We need them on, so that
		// deleting an access key cascades to its sessions.
		if !strings.Contains(config.Database, "_foreign_keys") {
			config.Database += "?_foreign_keys=on"
		}
	}
	db, err := dbh.OpenDB(logger, config, Migrations(logger), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open session database %v: %w", config.Database, err)
	}
	return &SessionDB{
		Log:      logger,
		DB:       db,
		Notifier: NewNotifier(),
	}, nil
}
