package sessiondb

import "github.com/cyclopcam/dbh"

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// AccessKey is a shared secret string that grants study content access.
// Keys are not per-user; whoever holds the key string may log in, but at most
// one device at a time.
type AccessKey struct {
	BaseModel
	KeyCode   string      `json:"keyCode"`
	IsActive  bool        `json:"isActive"`
	CreatedAt dbh.IntTime `json:"createdAt"`
}

// ActiveSession is one device currently holding an access key.
// A session is live while its heartbeat is younger than LiveWindow. Staleness
// is a read-time filter: stale rows stay behind until login cleanup, logout,
// an admin kill, or PurgeStale.
type ActiveSession struct {
	BaseModel
	KeyID             int64       `json:"keyID"`
	DeviceFingerprint string      `json:"deviceFingerprint"`
	IPAddress         string      `json:"ipAddress"`
	UserAgent         string      `json:"userAgent"`
	LastHeartbeat     dbh.IntTime `json:"lastHeartbeat"`
}
