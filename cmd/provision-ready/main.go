package main

import (
	"log"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/ruteri/wireserver-ready-agent/cmd/flags"
	"github.com/ruteri/wireserver-ready-agent/provisioner"
	"github.com/ruteri/wireserver-ready-agent/retry"
	"github.com/ruteri/wireserver-ready-agent/wireserver"
	"github.com/urfave/cli/v2"
)

var wireserverFlags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:  "wireserver-addr",
		Value: wireserver.DefaultServerAddr,
		Usage: "wireserver base address",
	},
	&cli.StringFlag{
		Name:  "agent-name",
		Value: wireserver.DefaultAgentName,
		Usage: "value of the x-ms-agent-name header sent with the readiness report",
	},
	&cli.IntFlag{
		Name:  "http-timeout",
		Value: int(wireserver.DefaultTimeout / time.Second),
		Usage: "timeout in seconds for a single wireserver request",
	},
}

const usage string = `Report this instance as ready to the wireserver.
Fetches the goal state, then posts a health report marking the first role
instance Ready. Both requests are retried with exponential backoff (2s doubling,
up to 2 minutes). Exits non-zero if the handshake could not be completed.`

func main() {
	app := &cli.App{
		Name:  "provision-ready",
		Usage: usage,
		Flags: slices.Concat(wireserverFlags, flags.LogFlags("provision-ready")),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			timeout := time.Duration(cCtx.Int("http-timeout")) * time.Second
			client := wireserver.NewClient(cCtx.String("wireserver-addr"), wireserver.NewHTTPClient(timeout))
			client.AgentName = cCtx.String("agent-name")

			logger.Debug("Using wireserver", "address", client.ServerAddr, "agentName", client.AgentName, "timeout", timeout)

			if code := provision(logger, client, retry.DefaultPolicy); code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// provision runs one handshake and returns the process exit code.
func provision(logger *slog.Logger, ws wireserver.WireServer, policy retry.Policy) int {
	p := provisioner.NewProvisioner(ws, policy, logger)
	if _, err := p.Do(); err != nil {
		logger.Error("Provisioning aborted", "state", p.State(), "err", err)
		return 1
	}

	logger.Info("Reported ready, exiting")
	return 0
}
