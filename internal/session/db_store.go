package session

import (
	"context"
	"fmt"
	"time"

	"github.com/justsurfingit/job-tracker-web/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore keeps session entries in the session_entries table, one row per entry.
type DBStore struct {
	DB *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{DB: db}
}

func (s *DBStore) Save(ctx context.Context, key string, sess Session) error {
	if err := checkKey(key); err != nil {
		return err
	}
	entries := []models.SessionEntry{
		{SessionKey: key, Name: EntryIDToken, Value: sess.IDToken},
		{SessionKey: key, Name: EntryUsername, Value: sess.Username},
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entries).Error
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *DBStore) Read(ctx context.Context, key string) (Session, error) {
	if err := checkKey(key); err != nil {
		return Session{}, err
	}
	var entries []models.SessionEntry
	if err := s.DB.WithContext(ctx).Where("session_key = ?", key).Find(&entries).Error; err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}

	var sess Session
	for _, e := range entries {
		switch e.Name {
		case EntryIDToken:
			sess.IDToken = e.Value
		case EntryUsername:
			sess.Username = e.Value
		}
	}
	return sess, nil
}

func (s *DBStore) Clear(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	err := s.DB.WithContext(ctx).Where("session_key = ?", key).Delete(&models.SessionEntry{}).Error
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Prune deletes sessions whose entries were last saved more than maxAge ago.
func (s *DBStore) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	var keys []string
	err := s.DB.WithContext(ctx).Model(&models.SessionEntry{}).
		Where("updated_at < ?", cutoff).
		Distinct().Pluck("session_key", &keys).Error
	if err != nil {
		return 0, fmt.Errorf("find expired sessions: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	err = s.DB.WithContext(ctx).Where("session_key IN ?", keys).Delete(&models.SessionEntry{}).Error
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return len(keys), nil
}
