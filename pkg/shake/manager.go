package shake

import (
	"context"
	"sync"

	"github.com/0xmhha/launcher-core/pkg/logger"
	"github.com/0xmhha/launcher-core/pkg/prefs"
)

// Torch controls the device flashlight.
type Torch interface {
	SetTorch(ctx context.Context, on bool) error
}

// Manager toggles a Torch on every shake while shake-to-toggle is enabled
// in the launcher settings.
type Manager struct {
	prefs    *prefs.Prefs
	torch    Torch
	detector *Detector
	logger   logger.Logger

	// OnToggle, when set, is called after the torch changed state.
	OnToggle func(on bool)

	mu      sync.Mutex
	torchOn bool
}

// NewManager creates a Manager with the default detector tuning.
func NewManager(p *prefs.Prefs, torch Torch, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Default()
	}

	return &Manager{
		prefs:    p,
		torch:    torch,
		detector: NewDetector(),
		logger:   log.Named("shake"),
	}
}

// Run consumes samples until ctx is done or samples is closed. The
// enabled setting is followed live; samples are ignored while it is off.
func (m *Manager) Run(ctx context.Context, samples <-chan Sample) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	enabledCh := m.prefs.WatchShakeEnabled(ctx)

	// The watch always delivers the current value first.
	var enabled bool
	select {
	case <-ctx.Done():
		return ctx.Err()
	case on, ok := <-enabledCh:
		if !ok {
			return nil
		}
		enabled = on
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case on, ok := <-enabledCh:
			if !ok {
				// Store closed.
				return nil
			}
			if on != enabled {
				m.logger.Debug("shake to toggle flashlight", "enabled", on)
				m.detector.Reset()
			}
			enabled = on

		case s, ok := <-samples:
			if !ok {
				return nil
			}
			if enabled && m.detector.Observe(s) {
				m.toggle(ctx)
			}
		}
	}
}

// TorchOn reports the last known torch state.
func (m *Manager) TorchOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.torchOn
}

// TorchChanged records a torch state change made outside the manager.
func (m *Manager) TorchChanged(on bool) {
	m.mu.Lock()
	m.torchOn = on
	m.mu.Unlock()
}

// SetTorch forces the torch on or off.
func (m *Manager) SetTorch(ctx context.Context, on bool) error {
	if err := m.torch.SetTorch(ctx, on); err != nil {
		return err
	}

	m.TorchChanged(on)
	if m.OnToggle != nil {
		m.OnToggle(on)
	}
	return nil
}

func (m *Manager) toggle(ctx context.Context) {
	next := !m.TorchOn()
	if err := m.SetTorch(ctx, next); err != nil {
		m.logger.Warn("failed to toggle torch",
			"on", next,
			"error", err)
		return
	}
	m.logger.Debug("torch toggled", "on", next)
}
