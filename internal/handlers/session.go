package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/justsurfingit/job-tracker-web/internal/session"
)

// SessionCookie carries the browser's session key. The token itself never leaves the server.
const SessionCookie = "jt_session"

const (
	ctxSession    = "session"
	ctxSessionKey = "sessionKey"
)

// RequireSession lets the request through only when the cookie names a stored, complete session.
// Everyone else is sent to the sign-in page before any remote call is made.
func RequireSession(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := sessionKey(c)
		if !ok {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		sess, err := store.Read(c.Request.Context(), key)
		if err != nil {
			log.Printf("⚠️ Could not read session: %v", err)
		}
		if err != nil || !sess.Valid() {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		c.Set(ctxSession, sess)
		c.Set(ctxSessionKey, key)
		c.Next()
	}
}

func sessionKey(c *gin.Context) (string, bool) {
	key, err := c.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(key); err != nil {
		return "", false
	}
	return key, true
}

// currentSession is only meaningful behind RequireSession.
func currentSession(c *gin.Context) session.Session {
	if v, ok := c.Get(ctxSession); ok {
		if sess, ok := v.(session.Session); ok {
			return sess
		}
	}
	return session.Session{}
}

func setSessionCookie(c *gin.Context, key string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, key, 0, "/", "", secure, true)
}

func clearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}
