// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Brian099/music-rhythm-test/cmd"
	applog "github.com/Brian099/music-rhythm-test/internal/log"
	"github.com/Brian099/music-rhythm-test/pkg/build"
)

// main runs one command to completion:
//
//  1. Startup: build information, signal handling.
//  2. Work: batch export, the HTTP service or a one-off query.
//  3. Shutdown: SIGINT/SIGTERM cancel the context; export stops scheduling
//     songs and the service drains in-flight requests.
func main() {
	// Development builds run without ldflags.
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build: %v, using development build info", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx, os.Args[1:])
	stop()
	if err != nil {
		applog.Errorf("%v", err)
		os.Exit(1)
	}
}
