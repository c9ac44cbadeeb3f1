package session

import (
	"context"
	"errors"
	"log"
	"regexp"
	"time"
)

// Names of the two persisted entries of a session.
const (
	EntryIDToken  = "idToken"
	EntryUsername = "username"
)

var ErrInvalidKey = errors.New("invalid session key")

// Session is the signed-in identity handed explicitly to every tracker API call.
type Session struct {
	IDToken  string
	Username string
}

// Valid reports whether both the token and the username are present.
func (s Session) Valid() bool {
	return s.IDToken != "" && s.Username != ""
}

// Store persists sessions keyed by browser session key.
// Read returns a zero Session and no error when nothing was saved under key.
type Store interface {
	Save(ctx context.Context, key string, s Session) error
	Read(ctx context.Context, key string) (Session, error)
	Clear(ctx context.Context, key string) error
}

// Pruner drops sessions that nobody has saved for longer than maxAge and reports how many went.
type Pruner interface {
	Prune(ctx context.Context, maxAge time.Duration) (int, error)
}

// StartPruning prunes once right away and then every interval until ctx is done.
func StartPruning(ctx context.Context, p Pruner, maxAge, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			n, err := p.Prune(ctx, maxAge)
			switch {
			case err != nil:
				log.Printf("⚠️ Session pruning failed: %v", err)
			case n > 0:
				log.Printf("🧹 Pruned %d expired sessions", n)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func checkKey(key string) error {
	if !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}
