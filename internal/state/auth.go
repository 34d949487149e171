package state

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/prefs"
	"github.com/minieshop/go-shop-client/internal/repository"
)

type AuthPhase int

const (
	AuthLoading AuthPhase = iota
	Authenticated
	Unauthenticated
)

type AuthState struct {
	Phase AuthPhase
}

// AccountState resolves the session's user id to the full user row.
type AccountState struct {
	Phase   Phase
	User    *model.User
	IsAdmin bool
}

// AuthHolder derives authentication state purely from the session flag in
// the preference store.
type AuthHolder struct {
	users repository.UserRepository
	prefs *prefs.Store
	log   *slog.Logger

	auth    *value[AuthState]
	account *value[AccountState]
}

func NewAuthHolder(users repository.UserRepository, pf *prefs.Store, log *slog.Logger) *AuthHolder {
	return &AuthHolder{
		users:   users,
		prefs:   pf,
		log:     log,
		auth:    newValue(AuthState{Phase: AuthLoading}),
		account: newValue(AccountState{Phase: PhaseLoading}),
	}
}

func (h *AuthHolder) Run(ctx context.Context) {
	ch := h.prefs.Watch(ctx)
	go func() {
		for snap := range ch {
			if snap.IsLoggedIn {
				h.auth.set(AuthState{Phase: Authenticated})
			} else {
				h.auth.set(AuthState{Phase: Unauthenticated})
			}
			h.resolveAccount(ctx, snap.Session)
		}
	}()
}

func (h *AuthHolder) resolveAccount(ctx context.Context, session prefs.Session) {
	if !session.IsLoggedIn {
		h.account.set(AccountState{Phase: PhaseEmpty})
		return
	}
	user, err := h.users.GetByID(ctx, session.LoggedInUserID)
	if err != nil {
		h.log.Warn("resolve session user", "error", err)
		h.account.set(AccountState{Phase: PhaseError})
		return
	}
	if user == nil {
		// Session points at a user that no longer exists; stay loading
		// until the session is cleared or repaired.
		h.account.set(AccountState{Phase: PhaseLoading})
		return
	}
	h.account.set(AccountState{Phase: PhaseSuccess, User: user, IsAdmin: user.IsAdmin()})
}

func (h *AuthHolder) State() AuthState                           { return h.auth.get() }
func (h *AuthHolder) Watch(ctx context.Context) <-chan AuthState { return h.auth.watch(ctx) }
func (h *AuthHolder) Account() AccountState                      { return h.account.get() }
func (h *AuthHolder) WatchAccount(ctx context.Context) <-chan AccountState {
	return h.account.watch(ctx)
}

func (h *AuthHolder) OnLoginSuccess(userID uuid.UUID) error {
	return h.prefs.SaveLoginState(userID)
}

func (h *AuthHolder) Logout() error {
	return h.prefs.ClearLoginState()
}
