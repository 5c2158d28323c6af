package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/scopeworks/internal/db"
	"github.com/Simplici0/scopeworks/internal/domain"
	"github.com/Simplici0/scopeworks/internal/repository"
)

const (
	sessionCookieName = "scopeworks_session"
	sessionKeyEmail   = "email"
	sessionMaxAge     = 7 * 24 * 60 * 60
)

type authService struct {
	uow   db.UnitOfWork
	store *sessions.CookieStore
}

// newAuthService signs session cookies with a key derived from sessionSecret.
func newAuthService(uow db.UnitOfWork, sessionSecret string, secure bool) *authService {
	key := sha256.Sum256([]byte(sessionSecret))
	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &authService{uow: uow, store: store}
}

func (a *authService) validateCredentials(ctx context.Context, email, password string) (bool, error) {
	var user *domain.User
	err := a.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		user, err = repository.NewSQLiteUserRepo(tx).GetByEmail(ctx, email)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query user credentials: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("compare password hash: %w", err)
	}
	return true, nil
}

func (a *authService) startSession(w http.ResponseWriter, r *http.Request, email string) error {
	session, _ := a.store.Get(r, sessionCookieName)
	session.Values[sessionKeyEmail] = strings.ToLower(strings.TrimSpace(email))
	return session.Save(r, w)
}

func (a *authService) endSession(w http.ResponseWriter, r *http.Request) error {
	session, _ := a.store.Get(r, sessionCookieName)
	session.Options.MaxAge = -1
	delete(session.Values, sessionKeyEmail)
	return session.Save(r, w)
}

// sessionEmail returns the signed-in email. A tampered or expired cookie reads as
// signed out.
func (a *authService) sessionEmail(r *http.Request) (string, bool) {
	session, err := a.store.Get(r, sessionCookieName)
	if err != nil {
		return "", false
	}
	email, ok := session.Values[sessionKeyEmail].(string)
	return email, ok && email != ""
}
