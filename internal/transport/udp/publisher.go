// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	applog "github.com/Brian099/music-rhythm-test/internal/log"
	"github.com/Brian099/music-rhythm-test/internal/transport"
)

// HeaderSize is the fixed size of the packet header in bytes.
const HeaderSize = 4 + 8 + 2

// MaxPayload is the largest JSON payload that fits one datagram.
const MaxPayload = 65507 - HeaderSize

// ErrPayloadTooLarge is returned for events that do not fit one datagram.
var ErrPayloadTooLarge = errors.New("event payload exceeds one UDP datagram")

/*
UDP Packet Structure (BigEndian)

|<---- 4 Bytes ---->|<------ 8 Bytes ------>|<-- 2 Bytes -->|<--- N Bytes --->|
+-------------------+-----------------------+---------------+------------------+
|  Sequence Number  |       Timestamp       |    Payload    |   JSON payload   |
|      (uint32)     |  (int64, ns of epoch) |    Length N   |    (event)       |
|                   |                       |    (uint16)   |                  |
+-------------------+-----------------------+---------------+------------------+
*/

// packetWriter is the part of UDPSender the publisher needs.
type packetWriter interface {
	Send(data []byte) error
	Close() error
}

// Publisher packs events into sequenced datagrams and sends them through
// a UDPSender. It implements transport.Transport.
type Publisher struct {
	sender packetWriter
	now    func() time.Time

	mu          sync.Mutex // Serialises sequence numbers and the packet buffer.
	sequenceNum uint32
	packet      *bytes.Buffer
}

// NewPublisher wraps sender. The publisher owns the sender and closes it.
func NewPublisher(sender *UDPSender) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	return newPublisher(sender), nil
}

func newPublisher(sender packetWriter) *Publisher {
	return &Publisher{
		sender: sender,
		now:    time.Now,
		packet: new(bytes.Buffer),
	}
}

// Send encodes data as JSON and transmits it as one packet.
func (p *Publisher) Send(data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("UDPPublisher: encoding event: %w", err)
	}
	if len(payload) > MaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.sequenceNum++
	p.packet.Reset()
	writePacket(p.packet, p.sequenceNum, p.now().UnixNano(), payload)

	if err := p.sender.Send(p.packet.Bytes()); err != nil {
		return err
	}
	applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequenceNum, p.packet.Len())
	return nil
}

// Close closes the underlying sender.
func (p *Publisher) Close() error {
	return p.sender.Close()
}

// writePacket appends header and payload to buf.
func writePacket(buf *bytes.Buffer, seq uint32, timestamp int64, payload []byte) {
	var header [HeaderSize]byte
	binary.BigEndian.PutUint32(header[0:4], seq)
	binary.BigEndian.PutUint64(header[4:12], uint64(timestamp))
	binary.BigEndian.PutUint16(header[12:14], uint16(len(payload)))
	buf.Write(header[:])
	buf.Write(payload)
}

// Packet is a decoded datagram.
type Packet struct {
	Sequence  uint32
	Timestamp time.Time
	Payload   []byte
}

// DecodePacket parses a datagram produced by Publisher.
func DecodePacket(data []byte) (Packet, error) {
	if len(data) < HeaderSize {
		return Packet{}, fmt.Errorf("packet too short: %d bytes", len(data))
	}
	n := int(binary.BigEndian.Uint16(data[12:14]))
	if len(data) != HeaderSize+n {
		return Packet{}, fmt.Errorf("packet length %d does not match payload length %d", len(data), n)
	}
	return Packet{
		Sequence:  binary.BigEndian.Uint32(data[0:4]),
		Timestamp: time.Unix(0, int64(binary.BigEndian.Uint64(data[4:12]))),
		Payload:   data[HeaderSize:],
	}, nil
}

// Ensure Publisher satisfies the interface at compile time.
var _ transport.Transport = (*Publisher)(nil)
