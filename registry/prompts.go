package registry

import (
	"time"
)

// PromptOverride replaces an agent's default system prompt.
type PromptOverride struct {
	Prompt    string    `json:"prompt"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PromptStore persists prompt overrides across restarts. Implementations must
// tolerate unavailability: a failing LoadOverrides downgrades to defaults and
// never propagates to request handling.
type PromptStore interface {
	LoadOverrides() (map[string]PromptOverride, error)
	SaveOverride(name, prompt string) error
	DeleteOverride(name string) error
}

// ensureOverridesLoaded loads persisted overrides exactly once per registry.
// A failed or absent store silently falls back to defaults; the failure is
// logged, never raised.
func (r *Registry) ensureOverridesLoaded() {
	r.loadOnce.Do(func() {
		if r.store == nil {
			return
		}
		loaded, err := r.store.LoadOverrides()
		if err != nil {
			r.logger.Warn("prompt override load failed, using defaults", "error", err.Error())
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		for name, ov := range loaded {
			r.overrides[name] = ov
		}
	})
}

// WarmOverrides eagerly loads prompt overrides, returning the load error for
// supervised warm-up paths. The registry still falls back to defaults either
// way; callers use the error purely for observability.
func (r *Registry) WarmOverrides() error {
	var loadErr error
	r.loadOnce.Do(func() {
		if r.store == nil {
			return
		}
		loaded, err := r.store.LoadOverrides()
		if err != nil {
			loadErr = err
			r.logger.Warn("prompt override load failed, using defaults", "error", err.Error())
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		for name, ov := range loaded {
			r.overrides[name] = ov
		}
	})
	return loadErr
}

// ResolvedPrompt returns the effective system prompt for name: the override
// when one is set, else the definition's default. The second return value is
// false for unknown agents, which is distinct from a known agent without an
// override.
func (r *Registry) ResolvedPrompt(name string) (string, bool) {
	r.ensureOverridesLoaded()

	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return "", false
	}
	if ov, ok := r.overrides[name]; ok && ov.Prompt != "" {
		return ov.Prompt, true
	}
	return def.SystemPrompt, true
}

// SetPromptOverride replaces the cached override for name and writes through
// to the prompt store best-effort.
func (r *Registry) SetPromptOverride(name, prompt string) {
	r.ensureOverridesLoaded()

	r.mu.Lock()
	r.overrides[name] = PromptOverride{Prompt: prompt, UpdatedAt: time.Now().UTC()}
	r.mu.Unlock()

	if r.store == nil {
		return
	}
	if err := r.store.SaveOverride(name, prompt); err != nil {
		r.logger.Warn("prompt override save failed", "agent", name, "error", err.Error())
	}
}

// ResetPrompt removes the override for name, restoring the default prompt,
// and deletes it from the prompt store best-effort.
func (r *Registry) ResetPrompt(name string) {
	r.ensureOverridesLoaded()

	r.mu.Lock()
	delete(r.overrides, name)
	r.mu.Unlock()

	if r.store == nil {
		return
	}
	if err := r.store.DeleteOverride(name); err != nil {
		r.logger.Warn("prompt override delete failed", "agent", name, "error", err.Error())
	}
}
