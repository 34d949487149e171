package state

import (
	"context"
	"log/slog"

	"github.com/minieshop/go-shop-client/internal/prefs"
)

type SettingsState struct {
	Phase    Phase
	Settings prefs.Settings
}

// SettingsHolder mirrors the settings slice of the preference store.
type SettingsHolder struct {
	prefs *prefs.Store
	log   *slog.Logger

	state *value[SettingsState]
}

func NewSettingsHolder(pf *prefs.Store, log *slog.Logger) *SettingsHolder {
	return &SettingsHolder{
		prefs: pf,
		log:   log,
		state: newValue(SettingsState{Phase: PhaseLoading}),
	}
}

func (h *SettingsHolder) Run(ctx context.Context) {
	ch := h.prefs.Watch(ctx)
	go func() {
		for snap := range ch {
			h.state.set(SettingsState{Phase: PhaseSuccess, Settings: snap.Settings})
		}
	}()
}

func (h *SettingsHolder) State() SettingsState { return h.state.get() }
func (h *SettingsHolder) Watch(ctx context.Context) <-chan SettingsState {
	return h.state.watch(ctx)
}

func (h *SettingsHolder) SetNotifications(enabled bool) {
	if err := h.prefs.SetNotifications(enabled); err != nil {
		h.log.Warn("save notifications setting", "error", err)
	}
}

func (h *SettingsHolder) SetDarkMode(enabled bool) {
	if err := h.prefs.SetDarkMode(enabled); err != nil {
		h.log.Warn("save dark mode setting", "error", err)
	}
}

func (h *SettingsHolder) SetLanguage(lang string) {
	if err := h.prefs.SetLanguage(lang); err != nil {
		h.log.Warn("save language setting", "error", err)
	}
}
