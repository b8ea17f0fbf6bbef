package sessiondb

import (
	"strings"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/pensapedia/studygate/pkg/rando"
)

// Length of generated key codes when the admin doesn't supply one
const generatedKeyCodeLength = 12

// CreateKey inserts a new active access key. An empty keyCode generates a
// random one.
func (s *SessionDB) CreateKey(keyCode string) (*AccessKey, error) {
	if keyCode == "" {
		keyCode = rando.StrongRandomAlphaNumChars(generatedKeyCodeLength)
	}
	key := AccessKey{
		KeyCode:   keyCode,
		IsActive:  true,
		CreatedAt: dbh.MakeIntTime(time.Now().UTC()),
	}
	if err := s.DB.Create(&key).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrKeyCodeExists
		}
		return nil, err
	}
	s.Log.Infof("Created access key %v", key.ID)
	return &key, nil
}

// ToggleKey flips the key's active flag, and returns the new state.
// Deactivating a key refuses new logins; the key's existing session, if any,
// continues until it goes stale or is killed.
func (s *SessionDB) ToggleKey(keyID int64) (bool, error) {
	key := AccessKey{}
	s.DB.Find(&key, keyID)
	if key.ID == 0 {
		return false, ErrKeyNotFound
	}
	newState := !key.IsActive
	if err := s.DB.Model(&AccessKey{}).Where("id = ?", keyID).Update("is_active", newState).Error; err != nil {
		return false, err
	}
	return newState, nil
}

// DeleteKey removes the key. The store cascades the delete to the key's
// session rows; we collect their ids first so that their owners get a
// deletion notification.
func (s *SessionDB) DeleteKey(keyID int64) error {
	ids := []int64{}
	if err := s.DB.Model(&ActiveSession{}).Where("key_id = ?", keyID).Pluck("id", &ids).Error; err != nil {
		return err
	}
	res := s.DB.Delete(&AccessKey{}, keyID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrKeyNotFound
	}
	s.Log.Infof("Deleted access key %v (%v sessions cascaded)", keyID, len(ids))
	for _, id := range ids {
		s.Notifier.Publish(SessionDeleted{SessionID: id, Reason: ReasonKeyDeleted})
	}
	return nil
}

// KeyWithSessions is an access key with its live session count, for the
// admin listing.
type KeyWithSessions struct {
	AccessKey
	LiveSessions int64 `json:"liveSessions"`
}

// ListKeys returns all keys, newest first, each with its live session count.
func (s *SessionDB) ListKeys() ([]KeyWithSessions, error) {
	keys := []KeyWithSessions{}
	err := s.DB.Model(&AccessKey{}).
		Select("access_key.*, COUNT(live.id) AS live_sessions").
		Joins("LEFT JOIN active_session live ON live.key_id = access_key.id AND live.last_heartbeat > ?", liveCutoff(time.Now())).
		Group("access_key.id").
		Order("access_key.created_at DESC").
		Scan(&keys).Error
	return keys, err
}

// Recognizes the sqlite and postgres unique constraint error messages
func isUniqueViolation(err error) bool {
	m := err.Error()
	return strings.Contains(m, "UNIQUE constraint failed") ||
		strings.Contains(m, "violates unique constraint")
}
