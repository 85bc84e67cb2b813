// Package app wires the client together: configuration, the saved session,
// the gateway and the screen controllers. The web front and the CLI both
// drive an *App.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "pfa/internal/errors"
	"pfa/internal/config"
	"pfa/internal/gateway"
	"pfa/internal/logger"
	"pfa/internal/models"
	"pfa/internal/session"
	"pfa/internal/staging"
	"pfa/internal/summary"
	"pfa/internal/validator"
	"pfa/internal/workspace"
)

// App is one signed-in (or signed-out) client.
type App struct {
	Config    *config.Config
	Session   *session.Session
	Gateway   *gateway.Client
	Workspace *workspace.Workspace
	Import    *staging.Workflow
	Summary   *summary.Service

	closers []func() error
}

// Open builds an App on the bbolt token file named by cfg and restores a
// saved session.
func Open(cfg *config.Config) (*App, error) {
	store, err := session.OpenBoltStore(cfg.TokenPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTokenStore, err)
	}
	a, err := New(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	a.closers = append(a.closers, store.Close)
	return a, nil
}

// New builds an App on store and restores a saved session from it.
func New(cfg *config.Config, store session.Store) (*App, error) {
	sess := session.New(store)
	if err := sess.Load(); err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}

	client := gateway.New(cfg.APIURL, sess, cfg.RequestTimeout)
	ws := workspace.New(client, workspace.Options{
		PageSize:         cfg.PageSize,
		ResetPageOnLimit: cfg.ResetPageOnLimit,
	})

	a := &App{
		Config:    cfg,
		Session:   sess,
		Gateway:   client,
		Workspace: ws,
		Import:    staging.New(client, ws.List, ws.Notices),
		Summary:   summary.NewService(client),
	}

	// Nothing from the previous user may survive a sign-out or an expired
	// token.
	sess.OnTeardown(func(reason session.Reason) {
		a.Workspace.Reset()
		a.Import.Reset()
		logger.Get().Debugw("client state cleared", "reason", reason)
	})
	return a, nil
}

// SignIn exchanges credentials for a token and stores it.
func (a *App) SignIn(ctx context.Context, creds models.Credentials) error {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := validator.Validate(creds); err != nil {
		return err
	}
	token, err := a.Gateway.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		return err
	}
	if a.Session.Authenticated() {
		// A different user may be signing in over an old session.
		if err := a.Session.Logout(); err != nil {
			logger.Get().Warnw("clearing previous session failed", "error", err)
		}
	}
	return a.Session.Login(token.AccessToken)
}

// SignUp creates an account. The caller signs in separately.
func (a *App) SignUp(ctx context.Context, req models.RegisterRequest) (models.Account, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validator.Validate(req); err != nil {
		return models.Account{}, err
	}
	return a.Gateway.Register(ctx, req)
}

// SignOut clears the session and every controller.
func (a *App) SignOut() error {
	return a.Session.Logout()
}

// Close releases the token store.
func (a *App) Close() error {
	var errs []error
	for _, fn := range a.closers {
		errs = append(errs, fn())
	}
	a.closers = nil
	return errors.Join(errs...)
}
