package config

import (
	"log/slog"

	"github.com/secmon-lab/idconsole/pkg/controller/relay"
	"github.com/urfave/cli/v3"
)

// Relay holds CLI flags for the CORS relay in front of the upstream API
type Relay struct {
	addr    string
	apiBase string
	apiKey  string `masq:"secret"`
}

func (x *Relay) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "relay-addr",
			Usage:       "Relay listen address",
			Category:    "Relay",
			Value:       "0.0.0.0:3001",
			Sources:     cli.EnvVars("IDCONSOLE_RELAY_ADDR"),
			Destination: &x.addr,
		},
		&cli.StringFlag{
			Name:        "spectro-api-base",
			Usage:       "Upstream identity API base URL",
			Category:    "Relay",
			Value:       relay.DefaultAPIBase,
			Sources:     cli.EnvVars("IDCONSOLE_SPECTRO_API_BASE"),
			Destination: &x.apiBase,
		},
		&cli.StringFlag{
			Name:        "spectro-api-key",
			Usage:       "Upstream API key sent as the ApiKey header",
			Category:    "Relay",
			Sources:     cli.EnvVars("IDCONSOLE_SPECTRO_API_KEY"),
			Destination: &x.apiKey,
		},
	}
}

func (x Relay) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", x.addr),
		slog.String("api_base", x.apiBase),
		slog.Int("api_key.len", len(x.apiKey)),
	)
}

// Addr returns the listen address
func (x *Relay) Addr() string {
	return x.addr
}

// Configure creates the relay handler
func (x *Relay) Configure() (*relay.Relay, error) {
	return relay.New(x.apiKey, relay.WithAPIBase(x.apiBase))
}
