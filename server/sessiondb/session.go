package sessiondb

import (
	"errors"
	"time"

	"github.com/cyclopcam/dbh"
)

const (
	// LiveWindow is the lease TTL of a session. A session whose heartbeat is
	// older than this is stale, and invisible to every reader.
	// The comparison is strict: a heartbeat exactly LiveWindow old is stale.
	LiveWindow = 120 * time.Second

	// HeartbeatInterval is how often a connected device is expected to
	// refresh its session.
	HeartbeatInterval = 30 * time.Second
)

var (
	ErrInvalidKey      = errors.New("invalid or inactive access key")
	ErrKeyInUse        = errors.New("access key is in use on another device")
	ErrSessionNotFound = errors.New("session not found")
	ErrKeyNotFound     = errors.New("access key not found")
	ErrKeyCodeExists   = errors.New("key code already exists")
)

// liveCutoff returns the unix-milli heartbeat value at or below which a
// session is stale.
func liveCutoff(now time.Time) int64 {
	return now.Add(-LiveWindow).UnixMilli()
}

// Admit performs login admission for keyCode, from the device identified by
// fingerprint. At most one live session may exist per key: a live session on
// a different device refuses this login with ErrKeyInUse, and we never evict
// the other device. Leftover rows from this same device (eg a tab that died
// before its unload beacon arrived) are replaced.
func (s *SessionDB) Admit(keyCode, fingerprint, ipAddress, userAgent string) (*ActiveSession, error) {
	s.admitLock.Lock()
	defer s.admitLock.Unlock()

	key := AccessKey{}
	s.DB.Where("key_code = ? AND is_active = ?", keyCode, true).Find(&key)
	if key.ID == 0 {
		return nil, ErrInvalidKey
	}

	now := time.Now().UTC()
	live := []ActiveSession{}
	if err := s.DB.Where("key_id = ? AND last_heartbeat > ?", key.ID, liveCutoff(now)).Find(&live).Error; err != nil {
		return nil, err
	}
	for _, other := range live {
		if other.DeviceFingerprint != fingerprint {
			return nil, ErrKeyInUse
		}
	}

	if err := s.DB.Where("device_fingerprint = ?", fingerprint).Delete(&ActiveSession{}).Error; err != nil {
		return nil, err
	}

	session := ActiveSession{
		KeyID:             key.ID,
		DeviceFingerprint: fingerprint,
		IPAddress:         ipAddress,
		UserAgent:         userAgent,
		LastHeartbeat:     dbh.MakeIntTime(now),
	}
	if err := s.DB.Create(&session).Error; err != nil {
		return nil, err
	}
	s.Log.Infof("Admitted session %v for key %v (device %v, ip %v)", session.ID, key.ID, fingerprint, ipAddress)
	return &session, nil
}

// Verify returns the session if its row still exists.
// ErrSessionNotFound means the device should wipe its cached state and return
// to the login view.
func (s *SessionDB) Verify(sessionID int64) (*ActiveSession, error) {
	session := ActiveSession{}
	s.DB.Find(&session, sessionID)
	if session.ID == 0 {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// Heartbeat refreshes the session's lease. ErrSessionNotFound means the row
// is gone (admin kill, key deletion, logout elsewhere); the caller should
// re-run its auth check rather than retry blindly.
func (s *SessionDB) Heartbeat(sessionID int64) error {
	res := s.DB.Model(&ActiveSession{}).Where("id = ?", sessionID).
		Update("last_heartbeat", dbh.MakeIntTime(time.Now().UTC()))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Logout deletes the caller's own session row. A missing row is not an error.
func (s *SessionDB) Logout(sessionID int64) error {
	return s.deleteSession(sessionID, ReasonLogout)
}

// Kill terminates a session administratively. The owning device receives a
// deletion notification on its watch channel.
func (s *SessionDB) Kill(sessionID int64) error {
	return s.deleteSession(sessionID, ReasonAdminTerminated)
}

func (s *SessionDB) deleteSession(sessionID int64, reason string) error {
	res := s.DB.Delete(&ActiveSession{}, sessionID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 0 {
		s.Notifier.Publish(SessionDeleted{SessionID: sessionID, Reason: reason})
	}
	return nil
}

// LiveSessionCount returns the number of live sessions holding the key.
func (s *SessionDB) LiveSessionCount(keyID int64) (int64, error) {
	n := int64(0)
	err := s.DB.Model(&ActiveSession{}).
		Where("key_id = ? AND last_heartbeat > ?", keyID, liveCutoff(time.Now())).
		Count(&n).Error
	return n, err
}

// LiveSession is a live session joined with its key code, for admin listings.
type LiveSession struct {
	ActiveSession
	KeyCode string `json:"keyCode"`
}

// ListLiveSessions returns all live sessions, newest heartbeat first.
func (s *SessionDB) ListLiveSessions() ([]LiveSession, error) {
	sessions := []LiveSession{}
	err := s.DB.Model(&ActiveSession{}).
		Select("active_session.*, access_key.key_code AS key_code").
		Joins("JOIN access_key ON access_key.id = active_session.key_id").
		Where("active_session.last_heartbeat > ?", liveCutoff(time.Now())).
		Order("active_session.last_heartbeat DESC").
		Scan(&sessions).Error
	return sessions, err
}

// PurgeStale deletes rows whose lease has expired. Readers never see stale
// rows, so this is housekeeping, not a liveness mechanism. Returns the number
// of rows removed.
func (s *SessionDB) PurgeStale() (int64, error) {
	res := s.DB.Where("last_heartbeat <= ?", liveCutoff(time.Now())).Delete(&ActiveSession{})
	return res.RowsAffected, res.Error
}
