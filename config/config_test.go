package config

import "testing"

func TestDefaultConfigAppliesChunkerAndSweepDefaults(t *testing.T) {
	c := DefaultConfig()
	if c.Chunker.MaxChunkSize != 1024 {
		t.Fatalf("got maxChunkSize %d", c.Chunker.MaxChunkSize)
	}
	if c.Chunker.PostDelaySeconds != 1 {
		t.Fatalf("got postDelaySeconds %d", c.Chunker.PostDelaySeconds)
	}
	if c.Sweep.ThreadTTLMinutes != 30 {
		t.Fatalf("got threadTtlMinutes %d", c.Sweep.ThreadTTLMinutes)
	}
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	c := &Config{Chunker: ChunkerConfig{MaxChunkSize: 2048, PostDelaySeconds: 3}}
	applyDefaults(c)
	if c.Chunker.MaxChunkSize != 2048 || c.Chunker.PostDelaySeconds != 3 {
		t.Fatalf("explicit chunker config was overwritten: %+v", c.Chunker)
	}
}

func TestDiscordAccessorsHandleMissingConfig(t *testing.T) {
	var c *Config
	if c.GetDiscordToken() != "" {
		t.Fatalf("nil config should yield empty token")
	}
	c = &Config{}
	if c.GetDiscordToken() != "" {
		t.Fatalf("empty channels should yield empty token")
	}
}
