package state

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/repository"
)

type RegisterStatus int

const (
	RegisterIdle RegisterStatus = iota
	RegisterLoading
	RegisterSuccess
	RegisterFailed
)

type RegisterState struct {
	Name     string
	Email    string
	Password string
	Status   RegisterStatus
	User     *model.User
	Err      string
}

type RegisterHolder struct {
	users repository.UserRepository
	log   *slog.Logger

	mu    sync.Mutex
	state *value[RegisterState]
}

func NewRegisterHolder(users repository.UserRepository, log *slog.Logger) *RegisterHolder {
	return &RegisterHolder{users: users, log: log, state: newValue(RegisterState{})}
}

func (h *RegisterHolder) State() RegisterState { return h.state.get() }
func (h *RegisterHolder) Watch(ctx context.Context) <-chan RegisterState {
	return h.state.watch(ctx)
}

func (h *RegisterHolder) SetName(name string)   { h.mutate(func(s *RegisterState) { s.Name = name }) }
func (h *RegisterHolder) SetEmail(email string) { h.mutate(func(s *RegisterState) { s.Email = email }) }
func (h *RegisterHolder) SetPassword(password string) {
	h.mutate(func(s *RegisterState) { s.Password = password })
}

func (h *RegisterHolder) Submit(ctx context.Context) {
	cur := h.state.get()
	name := strings.TrimSpace(cur.Name)
	email := strings.TrimSpace(cur.Email)
	if name == "" || email == "" || cur.Password == "" {
		h.mutate(func(s *RegisterState) {
			s.Status = RegisterFailed
			s.Err = "please fill in all fields"
		})
		return
	}

	h.mutate(func(s *RegisterState) { s.Status = RegisterLoading; s.Err = "" })

	user, err := h.users.Register(ctx, name, email, cur.Password)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, repository.ErrEmailTaken) {
			msg = "this email is already registered"
		} else {
			h.log.Warn("register", "error", err)
		}
		h.mutate(func(s *RegisterState) { s.Status = RegisterFailed; s.Err = msg })
		return
	}

	h.mutate(func(s *RegisterState) {
		s.Status = RegisterSuccess
		s.User = user
		s.Password = ""
	})
}

func (h *RegisterHolder) Reset() {
	h.mutate(func(s *RegisterState) { s.Status = RegisterIdle; s.Err = ""; s.User = nil })
}

func (h *RegisterHolder) mutate(f func(*RegisterState)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.state.get()
	f(&s)
	h.state.set(s)
}
