// suichan bridges a streaming LLM reply into Slack's rich-text blocks.
package main

import (
	"fmt"
	"os"

	"github.com/linanwx/suichan/cmd"
	"github.com/linanwx/suichan/config"
	"github.com/linanwx/suichan/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	configDir, _ := config.ConfigDir()
	if err := logger.Init(cfg.BuildLoggerConfig(), configDir); err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
	}
	cmd.Execute()
}
