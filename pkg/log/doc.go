/*
Package log provides structured logging for pipectl using zerolog.

The package wraps a single global zerolog.Logger that is configured once by
Init and then specialised per component with WithComponent. Every package in
the module logs through a component logger so that the request coordination
layer, the REST client and the list controllers can be told apart in the
output:

	┌──────────────────── LOGGING ─────────────────────┐
	│                                                   │
	│  log.Init(Config)  ──►  log.Logger (global)       │
	│                             │                     │
	│        ┌────────────────────┼──────────────┐      │
	│        ▼                    ▼              ▼      │
	│  WithComponent("dedupe")  ("client")  ("listview")│
	│        │                                          │
	│        ▼                                          │
	│  .With().Str("request_key", key)                  │
	└───────────────────────────────────────────────────┘

Until Init is called the global logger discards everything, which keeps
library users and tests quiet.

# Levels

Debug records cache joins and evictions, Info records completed mutations,
Warn records degraded behaviour such as a truncated bulk page, and Error
records failed requests.

# Usage

	log.Init(log.Config{
		Level:      log.ParseLevel(os.Getenv("PIPECTL_LOG_LEVEL")),
		JSONOutput: false,
	})

	logger := log.WithComponent("client")
	logger.Info().
		Str("resource", "agent").
		Str("agent_id", id).
		Msg("agent updated")

Output defaults to stderr so that table output written to stdout by the CLI
stays machine readable.
*/
package log
