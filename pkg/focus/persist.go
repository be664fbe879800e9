package focus

import (
	"context"

	"github.com/0xmhha/launcher-core/pkg/prefs"
	"github.com/0xmhha/launcher-core/pkg/store"
)

// persist mirrors an in-memory change into the store. The in-memory state
// is authoritative, so failures are logged and dropped, and the write is
// not abandoned when the caller's context is canceled.
func (e *Engine) persist(ctx context.Context, op string, fn func(*store.Editor)) {
	err := e.store.Edit(context.WithoutCancel(ctx), func(ed *store.Editor) error {
		fn(ed)
		return nil
	})
	if err != nil {
		e.metrics.FocusPersistFailed()
		e.logger.Warn("failed to persist focus session",
			"op", op,
			"error", err)
	}
}

// clearPersisted removes every focus session key.
func (e *Engine) clearPersisted(ctx context.Context) {
	e.persist(ctx, "clear", func(ed *store.Editor) {
		ed.RemoveAll(prefs.FocusKeys...)
	})
}

// persistedRemaining reads the remaining seconds saved by the last pause.
func (e *Engine) persistedRemaining(ctx context.Context) int {
	rem, err := store.Get(ctx, e.store, prefs.FocusRemainingSec, 0)
	if err != nil {
		e.logger.Warn("failed to read persisted remaining time", "error", err)
		return 0
	}
	return rem
}
