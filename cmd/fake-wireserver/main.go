package main

import (
	"log"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/ruteri/wireserver-ready-agent/cmd/flags"
	"github.com/ruteri/wireserver-ready-agent/httpserver"
	"github.com/ruteri/wireserver-ready-agent/interfaces"
	"github.com/urfave/cli/v2"
)

var serverFlags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8080",
		Usage: "address to serve the fake wireserver on",
	},
	&cli.StringFlag{
		Name:  "incarnation",
		Value: "1",
		Usage: "goal state incarnation",
	},
	&cli.StringFlag{
		Name:  "container-id",
		Value: "00000000-0000-0000-0000-000000000000",
		Usage: "goal state container id",
	},
	&cli.StringFlag{
		Name:  "instance-id",
		Value: "fake-instance.vm0",
		Usage: "id of the first role instance",
	},
	&cli.StringSliceFlag{
		Name:  "extra-instance-id",
		Usage: "additional role instances listed after the first one",
	},
	&cli.Int64Flag{
		Name:  "fail-goalstate",
		Value: 0,
		Usage: "number of initial goal state requests to answer with 500",
	},
	&cli.Int64Flag{
		Name:  "fail-health",
		Value: 0,
		Usage: "number of initial health reports to answer with 500",
	},
}

func main() {
	app := &cli.App{
		Name:  "fake-wireserver",
		Usage: "Serve the wireserver goal state and health endpoints for local testing",
		Flags: slices.Concat(serverFlags, flags.LogFlags("fake-wireserver"), []cli.Flag{flags.PprofFlag}),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			cfg := &httpserver.HTTPServerConfig{
				ListenAddr:  cCtx.String("listen-addr"),
				EnablePprof: cCtx.Bool(flags.PprofFlag.Name),
				Log:         logger,
				GoalState: interfaces.GoalState{
					Incarnation: cCtx.String("incarnation"),
					ContainerID: cCtx.String("container-id"),
					InstanceID:  cCtx.String("instance-id"),
				},
				ExtraInstances:           cCtx.StringSlice("extra-instance-id"),
				FailGoalStateRequests:    cCtx.Int64("fail-goalstate"),
				FailHealthRequests:       cCtx.Int64("fail-health"),
				GracefulShutdownDuration: 30 * time.Second,
				ReadTimeout:              60 * time.Second,
				WriteTimeout:             30 * time.Second,
			}

			server, err := httpserver.New(cfg)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit
			logger.Info("Shutdown signal received", "reportsReceived", server.ReportsReceived())

			server.Shutdown()
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
