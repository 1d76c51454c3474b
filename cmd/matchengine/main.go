// Command matchengine runs the concurrent multi-instrument matching engine:
// a TCP listener accepting NEW_BUY/NEW_SELL/CANCEL commands, and an
// optional HTTP endpoint exposing Prometheus metrics.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/kestrel-trading/matchengine/internal/app"
	"github.com/kestrel-trading/matchengine/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional; defaults are used if omitted)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fx.New(
		fx.Supply(cfg),
		app.Module,
	).Run()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
