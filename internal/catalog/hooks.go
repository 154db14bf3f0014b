package catalog

import (
	"context"
	"sync"

	"github.com/rzpsarthak13/query-filters/internal/core"
)

// RegistrationHook is executed before an entity is added to a catalog.
// Returning an error rejects the entity.
type RegistrationHook interface {
	OnRegister(ctx context.Context, entity *core.Entity) error
}

// HookFunc adapts a plain function to RegistrationHook.
type HookFunc func(ctx context.Context, entity *core.Entity) error

// OnRegister calls f.
func (f HookFunc) OnRegister(ctx context.Context, entity *core.Entity) error {
	return f(ctx, entity)
}

// hookManager runs registration hooks in the order they were added.
type hookManager struct {
	mu    sync.RWMutex
	hooks []RegistrationHook
}

func (hm *hookManager) add(hooks ...RegistrationHook) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	for _, h := range hooks {
		if h != nil {
			hm.hooks = append(hm.hooks, h)
		}
	}
}

// run executes every hook; the first error stops execution.
func (hm *hookManager) run(ctx context.Context, entity *core.Entity) error {
	hm.mu.RLock()
	hooks := make([]RegistrationHook, len(hm.hooks))
	copy(hooks, hm.hooks)
	hm.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook.OnRegister(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

func (hm *hookManager) count() int {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	return len(hm.hooks)
}
