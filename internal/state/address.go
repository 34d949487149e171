package state

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/prefs"
	"github.com/minieshop/go-shop-client/internal/repository"
)

type AddressState struct {
	Phase     Phase
	Addresses []model.Address
	Err       string
}

type AddressHolder struct {
	addresses repository.AddressRepository
	prefs     *prefs.Store
	log       *slog.Logger

	state *value[AddressState]
	events

	mu      sync.Mutex
	session prefs.Session
}

func NewAddressHolder(addresses repository.AddressRepository, pf *prefs.Store, log *slog.Logger) *AddressHolder {
	return &AddressHolder{
		addresses: addresses,
		prefs:     pf,
		log:       log,
		state:     newValue(AddressState{Phase: PhaseLoading}),
		events:    newEvents(),
	}
}

func (h *AddressHolder) Run(ctx context.Context) {
	go h.loop(ctx)
}

func (h *AddressHolder) loop(ctx context.Context) {
	prefsCh := h.prefs.Watch(ctx)

	var addrCh <-chan []model.Address
	var cancel context.CancelFunc
	defer func() {
		if cancel != nil {
			cancel()
		}
	}()

	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-prefsCh:
			if !ok {
				return
			}
			h.mu.Lock()
			changed := first || snap.Session != h.session
			first = false
			h.session = snap.Session
			h.mu.Unlock()
			if !changed {
				continue
			}
			if cancel != nil {
				cancel()
				cancel = nil
				addrCh = nil
			}
			if snap.IsLoggedIn {
				var sub context.Context
				sub, cancel = context.WithCancel(ctx)
				addrCh = h.addresses.WatchByUser(sub, snap.LoggedInUserID)
			} else {
				h.state.set(AddressState{Phase: PhaseError, Err: "not logged in"})
			}
		case addrs, ok := <-addrCh:
			if !ok {
				addrCh = nil
				continue
			}
			h.state.set(AddressState{Phase: PhaseSuccess, Addresses: addrs})
		}
	}
}

func (h *AddressHolder) State() AddressState                           { return h.state.get() }
func (h *AddressHolder) Watch(ctx context.Context) <-chan AddressState { return h.state.watch(ctx) }

// Add validates and persists a new address. With makeDefault set the new
// address also becomes the user's single default.
func (h *AddressHolder) Add(ctx context.Context, name, phone, addressText string, makeDefault bool) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(phone) == "" || strings.TrimSpace(addressText) == "" {
		h.emit("please fill in all address fields")
		return
	}
	session := h.currentSession()
	if !session.IsLoggedIn {
		h.emit("please log in to manage addresses")
		return
	}

	addr := &model.Address{
		UserID:  session.LoggedInUserID,
		Name:    strings.TrimSpace(name),
		Phone:   strings.TrimSpace(phone),
		Address: strings.TrimSpace(addressText),
	}
	if err := h.addresses.Insert(ctx, addr); err != nil {
		h.log.Warn("add address", "error", err)
		h.emit("could not save address")
		return
	}
	if makeDefault {
		if err := h.addresses.SetDefault(ctx, session.LoggedInUserID, addr.ID); err != nil {
			h.log.Warn("set default address", "error", err)
		}
	}
}

func (h *AddressHolder) Update(ctx context.Context, address model.Address) {
	if err := h.addresses.Update(ctx, &address); err != nil {
		h.log.Warn("update address", "error", err)
		h.emit("could not update address")
	}
}

func (h *AddressHolder) Delete(ctx context.Context, addressID uuid.UUID) {
	if err := h.addresses.Delete(ctx, addressID); err != nil {
		h.log.Warn("delete address", "error", err)
		h.emit("could not delete address")
	}
}

func (h *AddressHolder) SetDefault(ctx context.Context, addressID uuid.UUID) {
	session := h.currentSession()
	if !session.IsLoggedIn {
		return
	}
	if err := h.addresses.SetDefault(ctx, session.LoggedInUserID, addressID); err != nil {
		h.log.Warn("set default address", "error", err)
		h.emit("could not set default address")
	}
}

func (h *AddressHolder) currentSession() prefs.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session
}
