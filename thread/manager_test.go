package thread

import (
	"context"
	"testing"
	"time"

	"github.com/linanwx/suichan/slackapi"
)

type fakeGenerator struct {
	chunks []string
}

func (g *fakeGenerator) Generate(_ context.Context, _ Turn, emit func(string)) error {
	for _, c := range g.chunks {
		emit(c)
	}
	return nil
}

func TestDispatchCreatesOneThreadPerChannelAndTS(t *testing.T) {
	mgr := NewManager(Config{
		Client:       slackapi.New(""),
		Generator:    &fakeGenerator{chunks: []string{"hello\n\n"}},
		MaxChunkSize: 64,
	})

	turn := Turn{Channel: "C1", ThreadTS: "100.1", Trigger: slackapi.Message{Ts: "100.2", Text: "hi"}}
	mgr.Dispatch(context.Background(), turn)
	mgr.Dispatch(context.Background(), Turn{Channel: "C1", ThreadTS: "100.1"})
	mgr.Dispatch(context.Background(), Turn{Channel: "C2", ThreadTS: "200.1"})

	// Give goroutines a moment; RunTurn only posts (best-effort HTTP calls
	// that will fail without a real token, which is fine for this check).
	time.Sleep(10 * time.Millisecond)

	if got := mgr.Count(); got != 2 {
		t.Fatalf("expected 2 distinct threads, got %d", got)
	}
}

func TestSweepDropsIdleThreads(t *testing.T) {
	mgr := NewManager(Config{
		Client:       slackapi.New(""),
		Generator:    &fakeGenerator{},
		MaxChunkSize: 64,
		ThreadTTL:    time.Millisecond,
	})
	mgr.Get("C1", "100.1")
	time.Sleep(5 * time.Millisecond)
	mgr.sweep()
	if got := mgr.Count(); got != 0 {
		t.Fatalf("expected idle thread to be swept, got count %d", got)
	}
}
