// Package thread owns one Poster/Chunker pair per active Slack thread,
// serializing turns within a thread while letting distinct threads run
// fully in parallel, and reaps threads that have been idle past a TTL.
package thread

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/linanwx/suichan/logger"
)

// Manager is the registry of live threads, keyed by "channel|thread_ts".
type Manager struct {
	cfg Config

	mu      sync.Mutex
	threads map[string]*Thread

	sweeper *cron.Cron
}

// NewManager constructs a Manager. MaxChunkSize and ThreadTTL fall back to
// their package defaults when zero.
func NewManager(cfg Config) *Manager {
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = 1024
	}
	if cfg.ThreadTTL <= 0 {
		cfg.ThreadTTL = defaultThreadTTL
	}
	return &Manager{cfg: cfg, threads: make(map[string]*Thread)}
}

func key(channel, threadTS string) string { return channel + "|" + threadTS }

// Get returns the thread for (channel, threadTS), creating it if absent.
func (m *Manager) Get(channel, threadTS string) *Thread {
	k := key(channel, threadTS)
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.threads[k]; ok {
		return t
	}
	t := &Thread{key: k, mgr: m, lastActiveAt: time.Now()}
	m.threads[k] = t
	return t
}

// Dispatch runs a turn on its thread in a new goroutine; the thread's own
// mutex serializes it against any other turn already running there.
func (m *Manager) Dispatch(ctx context.Context, turn Turn) {
	t := m.Get(turn.Channel, turn.ThreadTS)
	go func() {
		if err := t.RunTurn(ctx, turn); err != nil {
			logger.Error("thread turn failed", "thread", t.key, "err", err)
		}
	}()
}

func (m *Manager) logDrainErr(key string, err error) {
	logger.Error("thread poster drain failed", "thread", key, "err", err)
}

// StartSweeper schedules the idle-thread reaper on a cron expression
// ("@every 5m" by default) and returns a stop function.
func (m *Manager) StartSweeper(expr string) (func(), error) {
	if expr == "" {
		expr = defaultSweepCron
	}
	c := cron.New()
	if _, err := c.AddFunc(expr, m.sweep); err != nil {
		return nil, err
	}
	c.Start()
	m.sweeper = c
	return func() { <-c.Stop().Done() }, nil
}

// sweep drops threads that have been idle longer than the configured TTL.
// A dropped thread carries no state beyond lastActiveAt, so reaping it just
// means the next turn for that (channel, thread_ts) starts a fresh Poster.
func (m *Manager) sweep() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, t := range m.threads {
		if t.idleSince(now) >= m.cfg.ThreadTTL {
			delete(m.threads, k)
		}
	}
}

// Count returns the number of live threads, for health reporting.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.threads)
}
