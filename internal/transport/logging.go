// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"

	applog "github.com/Brian099/music-rhythm-test/internal/log"
)

// LoggingTransport implements the Transport interface by logging events.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the event as JSON, or with %+v if it cannot be marshalled.
func (lt *LoggingTransport) Send(data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		applog.Infof("Transport: Event (%T): %+v", data, data)
		return nil
	}
	applog.Infof("Transport: Event %s", jsonData)
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
