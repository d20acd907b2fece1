package thread

import (
	"context"
	"sync"
	"time"

	"github.com/linanwx/suichan/chunker"
	"github.com/linanwx/suichan/poster"
	"github.com/linanwx/suichan/slackapi"
	"github.com/linanwx/suichan/thread/msg"
)

// Turn is an alias for msg.Turn.
type Turn = msg.Turn

const (
	defaultThreadTTL = 30 * time.Minute
	defaultSweepCron = "@every 5m"
)

// Generator drives one turn's reply generation. It must call emit for every
// fragment of model output as it becomes available (streamed token-by-token
// or in larger increments) and return once the reply is complete.
type Generator interface {
	Generate(ctx context.Context, turn Turn, emit func(string)) error
}

// Config holds the shared dependencies every thread needs.
type Config struct {
	Client       *slackapi.Client
	Generator    Generator
	MaxChunkSize int
	ThreadTTL    time.Duration
}

// Thread owns the serialized turn execution for one Slack thread. A single
// mutex enforces that turns within this thread never overlap; distinct
// threads never share state and may run fully in parallel.
type Thread struct {
	key string
	mgr *Manager

	mu           sync.Mutex
	lastActiveAt time.Time
}

func (t *Thread) touch() {
	t.mu.Lock()
	t.lastActiveAt = time.Now()
	t.mu.Unlock()
}

func (t *Thread) idleSince(now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return now.Sub(t.lastActiveAt)
}

// RunTurn executes one turn: a fresh Poster/Chunker pair for this
// generation, fed by the Generator, drained as output arrives.
func (t *Thread) RunTurn(ctx context.Context, turn Turn) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastActiveAt = time.Now()

	p := poster.New(t.mgr.cfg.Client, turn.Channel, turn.ThreadTS, t.mgr.cfg.MaxChunkSize)

	first := true
	genErr := t.mgr.cfg.Generator.Generate(ctx, turn, func(chunk string) {
		if first {
			chunk = chunker.PreClean(chunk)
			first = false
		}
		p.Feed(chunk)
		if _, err := p.Drain(); err != nil {
			t.mgr.logDrainErr(t.key, err)
		}
	})
	p.Finish()
	if _, err := p.Drain(); err != nil {
		t.mgr.logDrainErr(t.key, err)
	}

	t.lastActiveAt = time.Now()
	return genErr
}
