package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gridbase/gridbase/internal/auth"
	"github.com/gridbase/gridbase/internal/config"
	"github.com/gridbase/gridbase/internal/queue"
	"github.com/gridbase/gridbase/internal/repository"
	audit "github.com/gridbase/gridbase/internal/service"
	"github.com/gridbase/gridbase/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *repository.SessionRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, s *repository.SessionRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPart struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}
type sessionPart struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
type authResp struct {
	User    userPart    `json:"user"`
	Session sessionPart `json:"session"`
}

func toUserPart(u repository.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, Active: u.IsActive}
}

// Register creates the account and logs it in immediately. The very first
// account on a fresh install becomes the platform admin.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	var errs []FieldError
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		errs = append(errs, FieldError{Field: "email", Message: "a valid email is required"})
	}
	if req.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	}
	if len(req.Password) < 8 {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}
	if len(errs) > 0 {
		return failValidation(c, errs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return failValidation(c, []FieldError{{Field: "email", Message: "email already registered"}})
		}
		return err
	}

	session, raw, err := h.startSession(ctx, c, u)
	if err != nil {
		return err
	}

	audit.Publish(queue.AuditEvent{Kind: queue.EventUserRegistered, UserID: u.ID, Email: u.Email, IP: c.RealIP()})

	return ok(c, http.StatusCreated, authResp{
		User:    toUserPart(u),
		Session: sessionPart{Token: raw, ExpiresAt: session.ExpiresAt},
	})
}

// Login verifies credentials and opens a new session. Every failure answers
// the same generic 401; nothing distinguishes a wrong password from an
// unknown email.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return failValidation(c, []FieldError{
			{Field: "email", Message: "email and password are required"},
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			audit.Publish(queue.AuditEvent{Kind: queue.EventLoginFailed, Email: req.Email, IP: c.RealIP()})
			return fail(c, http.StatusUnauthorized, "invalid credentials")
		}
		return err
	}
	if !utils.VerifyPassword(req.Password, u.PasswordHash) {
		audit.Publish(queue.AuditEvent{Kind: queue.EventLoginFailed, UserID: u.ID, Email: u.Email, IP: c.RealIP()})
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}
	if !u.IsActive {
		return fail(c, http.StatusForbidden, "account disabled")
	}

	session, raw, err := h.startSession(ctx, c, u)
	if err != nil {
		return err
	}

	audit.Publish(queue.AuditEvent{Kind: queue.EventLoginSucceeded, UserID: u.ID, Email: u.Email, IP: c.RealIP()})

	return ok(c, http.StatusOK, authResp{
		User:    toUserPart(u),
		Session: sessionPart{Token: raw, ExpiresAt: session.ExpiresAt},
	})
}

// startSession mints a token, stores only its digest and sets the cookie.
// Any crypto failure aborts the whole operation; there is no weaker
// fallback.
func (h *AuthHandler) startSession(ctx context.Context, c echo.Context, u repository.User) (repository.Session, string, error) {
	raw, err := utils.NewSessionToken()
	if err != nil {
		return repository.Session{}, "", err
	}
	session, err := h.Sessions.Create(ctx, u.ID, utils.DigestToken(raw),
		c.RealIP(), c.Request().UserAgent(), h.Cfg.SessionTTL)
	if err != nil {
		return repository.Session{}, "", err
	}
	c.SetCookie(h.sessionCookie(raw, int(h.Cfg.SessionTTL/time.Second)))
	return session, raw, nil
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     "session_token",
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.Cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// Logout deletes the presented session and clears the cookie. Deleting the
// row is what invalidates the token; the cookie reset is a courtesy.
func (h *AuthHandler) Logout(c echo.Context) error {
	ident, found := auth.CurrentIdentity(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "authentication required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.DeleteByDigest(ctx, ident.Session.TokenDigest); err != nil {
		return err
	}
	c.SetCookie(h.sessionCookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every session of the current user.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	ident, found := auth.CurrentIdentity(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "authentication required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.DeleteAllForUser(ctx, ident.User.ID); err != nil {
		return err
	}
	c.SetCookie(h.sessionCookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	ident, found := auth.CurrentIdentity(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "authentication required")
	}
	return ok(c, http.StatusOK, toUserPart(ident.User))
}

// UpdateMe is the self-service profile edit; only the display name is
// mutable here.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	ident, found := auth.CurrentIdentity(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "authentication required")
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return failValidation(c, []FieldError{{Field: "name", Message: "name is required"}})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Users.UpdateName(ctx, ident.User.ID, req.Name); err != nil {
		return err
	}
	u := ident.User
	u.Name = req.Name
	return ok(c, http.StatusOK, toUserPart(u))
}

// MySessions lists the caller's live sessions so they can spot unfamiliar
// devices. Token digests stay server-side.
func (h *AuthHandler) MySessions(c echo.Context) error {
	ident, found := auth.CurrentIdentity(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "authentication required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sessions, err := h.Sessions.ListForUser(ctx, ident.User.ID)
	if err != nil {
		return err
	}
	type sessionInfo struct {
		ID        string    `json:"id"`
		IP        string    `json:"ip"`
		UserAgent string    `json:"user_agent"`
		CreatedAt time.Time `json:"created_at"`
		ExpiresAt time.Time `json:"expires_at"`
		Current   bool      `json:"current"`
	}
	out := make([]sessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionInfo{
			ID: s.ID, IP: s.IP, UserAgent: s.UserAgent,
			CreatedAt: s.CreatedAt, ExpiresAt: s.ExpiresAt,
			Current: s.ID == ident.Session.ID,
		})
	}
	return ok(c, http.StatusOK, out)
}
