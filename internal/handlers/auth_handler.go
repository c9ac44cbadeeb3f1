package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/justsurfingit/job-tracker-web/internal/auth"
	"github.com/justsurfingit/job-tracker-web/internal/dtos"
	"github.com/justsurfingit/job-tracker-web/internal/session"
	"github.com/justsurfingit/job-tracker-web/internal/views"
)

// Authenticator is the identity provider. *auth.CognitoClient implements it.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*auth.SignInResult, error)
	SignUp(ctx context.Context, email, password string, attrs auth.SignUpAttributes) (*auth.SignUpResult, error)
}

type AuthHandler struct {
	Identity      Authenticator
	Sessions      session.Store
	SecureCookies bool
}

func NewAuthHandler(identity Authenticator, sessions session.Store, secureCookies bool) *AuthHandler {
	return &AuthHandler{Identity: identity, Sessions: sessions, SecureCookies: secureCookies}
}

func (h *AuthHandler) SignInPage(c *gin.Context) {
	page := views.AuthPage{}
	if c.Query("registered") == "1" {
		page.Notice = "Account created. Check your email for the confirmation code, then sign in."
	}
	c.HTML(http.StatusOK, "signin.tmpl", page)
}

// SignIn is POST /. Only a successful sign-in touches the session store.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var form dtos.SignInForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "signin.tmpl", views.AuthPage{
			Email: form.Email,
			Error: "Enter a valid email address and your password.",
		})
		return
	}

	res, err := h.Identity.SignIn(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		log.Printf("❌ Sign in failed for %s: %v", form.Email, err)
		c.HTML(http.StatusUnauthorized, "signin.tmpl", views.AuthPage{
			Email: form.Email,
			Error: identityMessage(err),
		})
		return
	}

	if old, ok := sessionKey(c); ok {
		if err := h.Sessions.Clear(c.Request.Context(), old); err != nil {
			log.Printf("⚠️ Could not clear previous session: %v", err)
		}
	}

	key := uuid.NewString()
	sess := session.Session{IDToken: res.IDToken, Username: res.Username}
	if err := h.Sessions.Save(c.Request.Context(), key, sess); err != nil {
		log.Printf("❌ Could not save session: %v", err)
		c.HTML(http.StatusInternalServerError, "signin.tmpl", views.AuthPage{
			Email: form.Email,
			Error: "Signed in, but the session could not be stored. Please try again.",
		})
		return
	}

	setSessionCookie(c, key, h.SecureCookies)
	log.Printf("✅ %s signed in", res.Username)
	c.Redirect(http.StatusSeeOther, "/home")
}

func (h *AuthHandler) SignUpPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.tmpl", views.AuthPage{})
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var form dtos.SignUpForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "signup.tmpl", views.AuthPage{
			Email: form.Email,
			Name:  form.Name,
			Phone: form.Phone,
			Error: formMessage(err),
		})
		return
	}

	res, err := h.Identity.SignUp(c.Request.Context(), form.Email, form.Password, auth.SignUpAttributes{
		Name:  form.Name,
		Phone: form.Phone,
	})
	if err != nil {
		log.Printf("❌ Sign up failed for %s: %v", form.Email, err)
		c.HTML(http.StatusBadRequest, "signup.tmpl", views.AuthPage{
			Email: form.Email,
			Name:  form.Name,
			Phone: form.Phone,
			Error: identityMessage(err),
		})
		return
	}

	log.Printf("🆕 Registered %s (confirmed=%t, code sent to %q)", form.Email, res.Confirmed, res.Destination)
	c.Redirect(http.StatusSeeOther, "/?registered=1")
}

// Logout forgets the session on both sides and returns to the sign-in page.
func (h *AuthHandler) Logout(c *gin.Context) {
	if key, ok := sessionKey(c); ok {
		if err := h.Sessions.Clear(c.Request.Context(), key); err != nil {
			log.Printf("⚠️ Could not clear session: %v", err)
		}
	}
	clearSessionCookie(c, h.SecureCookies)
	c.Redirect(http.StatusSeeOther, "/")
}

func identityMessage(err error) string {
	var ierr *auth.IdentityError
	if errors.As(err, &ierr) && ierr.Reason != "" {
		return ierr.Reason
	}
	return "Something went wrong. Please try again."
}

// formMessage returns one message per invalid field, in input order.
func formMessage(err error) string {
	var verr *views.ValidationError
	if !errors.As(views.NewValidationError(err), &verr) {
		return "The form could not be read. Please try again."
	}
	for _, name := range []string{"name", "email", "phone", "password"} {
		if msg, ok := verr.Fields[name]; ok {
			return name + ": " + msg
		}
	}
	return verr.Error()
}
