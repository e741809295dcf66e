// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"

	"github.com/Brian099/music-rhythm-test/internal/analysis"
	"github.com/Brian099/music-rhythm-test/internal/audio"
	"github.com/Brian099/music-rhythm-test/internal/catalog"
	"github.com/Brian099/music-rhythm-test/internal/config"
	applog "github.com/Brian099/music-rhythm-test/internal/log"
	"github.com/Brian099/music-rhythm-test/internal/transport"
	"github.com/Brian099/music-rhythm-test/internal/transport/udp"
)

// newTransports assembles the event sinks enabled in cfg. hub, if non-nil,
// receives events for websocket clients.
func newTransports(cfg *config.Config, hub *transport.WebSocketHub) (*transport.Multi, error) {
	multi := transport.NewMulti()
	if hub != nil {
		multi.Add(hub)
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			multi.Close()
			return nil, err
		}
		publisher, err := udp.NewPublisher(sender)
		if err != nil {
			sender.Close()
			multi.Close()
			return nil, err
		}
		multi.Add(publisher)
		applog.Infof("Transport: Publishing events to udp://%s", sender.Target())
	}

	if cfg.Transport.LogEvents {
		multi.Add(transport.NewLoggingTransport())
	}
	return multi, nil
}

// newCatalog wires the filesystem store, decoder and analyser described
// by cfg.
func newCatalog(cfg *config.Config, readTitles bool, tr transport.Transport) (*catalog.Catalog, error) {
	analyzer, err := analysis.NewAnalyzer(cfg.AnalysisOptions())
	if err != nil {
		return nil, fmt.Errorf("building analyzer: %w", err)
	}
	decoder := audio.NewFormatDecoder(cfg.DecoderOptions())
	store := catalog.NewFSStore(cfg.Library.Root)
	return catalog.New(cfg.CatalogOptions(readTitles), store, decoder, analyzer, tr)
}
