// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"net/http"

	"github.com/Brian099/music-rhythm-test/internal/config"
	applog "github.com/Brian099/music-rhythm-test/internal/log"
	"github.com/Brian099/music-rhythm-test/internal/server"
	"github.com/Brian099/music-rhythm-test/internal/transport"
	"github.com/Brian099/music-rhythm-test/pkg/build"

	"github.com/spf13/cobra"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var (
		addr      string
		maxJobs   int
		websocket bool
		udpTarget string
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the player, the song listing and on-demand rhythm generation over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("max-jobs") {
				cfg.Server.MaxJobs = maxJobs
			}
			if cmd.Flags().Changed("websocket") {
				cfg.Server.WebSocket = websocket
			}
			if cmd.Flags().Changed("udp") {
				cfg.Transport.UDPEnabled = true
				cfg.Transport.UDPTargetAddress = udpTarget
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServe(cmd, cfg)
		},
	}

	serveCmd.Flags().StringVarP(&addr, "addr", "a", config.DefaultServerAddr,
		"Listen address")
	serveCmd.Flags().IntVarP(&maxJobs, "max-jobs", "j", config.DefaultMaxJobs,
		"Generation requests analysed at once")
	serveCmd.Flags().BoolVar(&websocket, "websocket", true,
		"Stream generation events to websocket clients on /ws")
	serveCmd.Flags().StringVar(&udpTarget, "udp", config.DefaultUDPTargetAddress,
		"Also publish generation events as UDP datagrams to host:port")
	return serveCmd
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	var (
		hub    *transport.WebSocketHub
		events http.Handler
	)
	if cfg.Server.WebSocket {
		hub = transport.NewWebSocketHub()
		events = hub
	}

	tr, err := newTransports(cfg, hub)
	if err != nil {
		return err
	}
	defer tr.Close()

	cat, err := newCatalog(cfg, true, tr)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg.ServerOptions(), cat, events)
	if err != nil {
		return err
	}

	applog.Infof("Server: Starting %s", build.GetInfo())
	return srv.Run(cmd.Context())
}
