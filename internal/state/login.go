package state

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/prefs"
	"github.com/minieshop/go-shop-client/internal/repository"
)

type LoginStatus int

const (
	LoginIdle LoginStatus = iota
	LoginLoading
	LoginSuccess
	LoginFailed
)

type LoginState struct {
	Email      string
	Password   string
	RememberMe bool
	Status     LoginStatus
	User       *model.User
	Err        string
}

// LoginHolder backs the login screen: field state, remembered-email preload,
// and the credential check itself.
type LoginHolder struct {
	users repository.UserRepository
	prefs *prefs.Store
	log   *slog.Logger

	mu    sync.Mutex
	state *value[LoginState]
}

func NewLoginHolder(users repository.UserRepository, pf *prefs.Store, log *slog.Logger) *LoginHolder {
	initial := LoginState{}
	if email := pf.Current().RememberMeEmail; email != "" {
		initial.Email = email
		initial.RememberMe = true
	}
	return &LoginHolder{users: users, prefs: pf, log: log, state: newValue(initial)}
}

func (h *LoginHolder) State() LoginState                           { return h.state.get() }
func (h *LoginHolder) Watch(ctx context.Context) <-chan LoginState { return h.state.watch(ctx) }

func (h *LoginHolder) SetEmail(email string) {
	h.mutate(func(s *LoginState) { s.Email = email })
}

func (h *LoginHolder) SetPassword(password string) {
	h.mutate(func(s *LoginState) { s.Password = password })
}

func (h *LoginHolder) SetRememberMe(remember bool) {
	h.mutate(func(s *LoginState) { s.RememberMe = remember })
}

// Submit runs the credential check. Validation failures never reach the
// repository.
func (h *LoginHolder) Submit(ctx context.Context) {
	cur := h.state.get()
	email := strings.TrimSpace(cur.Email)
	if email == "" || cur.Password == "" {
		h.mutate(func(s *LoginState) {
			s.Status = LoginFailed
			s.Err = "please fill in email and password"
		})
		return
	}

	h.mutate(func(s *LoginState) { s.Status = LoginLoading; s.Err = "" })

	user, err := h.users.Login(ctx, email, cur.Password)
	if err != nil {
		h.log.Warn("login", "error", err)
		h.mutate(func(s *LoginState) { s.Status = LoginFailed; s.Err = err.Error() })
		return
	}
	if user == nil {
		h.mutate(func(s *LoginState) {
			s.Status = LoginFailed
			s.Err = "wrong email or password"
		})
		return
	}

	if err := h.prefs.SaveLoginState(user.ID); err != nil {
		h.log.Warn("save login state", "error", err)
	}
	remembered := ""
	if cur.RememberMe {
		remembered = email
	}
	if err := h.prefs.SaveRememberedEmail(remembered); err != nil {
		h.log.Warn("save remembered email", "error", err)
	}

	h.mutate(func(s *LoginState) {
		s.Status = LoginSuccess
		s.User = user
		s.Password = ""
	})
}

func (h *LoginHolder) Reset() {
	h.mutate(func(s *LoginState) { s.Status = LoginIdle; s.Err = ""; s.User = nil })
}

func (h *LoginHolder) mutate(f func(*LoginState)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.state.get()
	f(&s)
	h.state.set(s)
}
