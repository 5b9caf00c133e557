// Package rawtxsub implements the optional raw-transaction subscriber of
// spec.md §4.7: it reads frames from the node's publish socket and inserts
// newly-seen mempool transactions into the shared bytes cache without
// waiting for the next mempool poll. Grounded on the teacher's `peer`
// package message-framing loop (read length-prefixed frames off a
// persistent connection, dispatch by type) adapted from the P2P wire
// protocol to the node's raw-tx publish frames.
package rawtxsub

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"net"
	"time"

	"github.com/RCasatta/fbbe/logging"
	"github.com/RCasatta/fbbe/sharedstate"
	"github.com/RCasatta/fbbe/wiretx"
)

var log = logging.Logger(logging.SubsystemTags.ZMQR)

const reconnectDelay = 2 * time.Second

// Subscriber connects to a configured raw-tx publish socket and feeds
// received transactions into Shared State.
type Subscriber struct {
	addr  string
	state *sharedstate.State
}

// New creates a Subscriber for the given host:port.
func New(addr string, state *sharedstate.State) *Subscriber {
	return &Subscriber{addr: addr, state: state}
}

// Run connects and reads frames until ctx is canceled, reconnecting on any
// error after reconnectDelay. Best-effort: a dropped or malformed frame is
// logged and skipped, never fatal (spec.md §4.7: "dropped frames are
// acceptable").
func (s *Subscriber) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.runOnce(ctx); err != nil {
			log.Warnf("rawtxsub: connection to %s: %v", s.addr, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *Subscriber) runOnce(ctx context.Context) error {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	r := bufio.NewReader(conn)
	for {
		topic, body, seq, err := readFrame(r)
		if err != nil {
			return err
		}
		if topic != "rawtx" {
			continue
		}
		s.handleFrame(body, seq)
	}
}

// handleFrame parses the serialized transaction with the zero-copy visitor
// (just enough to get its identifier) and inserts its bytes into the shared
// bytes cache, as spec.md §4.7 describes.
func (s *Subscriber) handleFrame(body []byte, seq uint32) {
	tx, err := wiretx.ParseTx(body)
	if err != nil {
		log.Debugf("rawtxsub: dropping unparseable frame (seq %d): %v", seq, err)
		return
	}
	s.state.CacheRawTx(tx.ID(), tx.Raw())
}

// frame layout: [topic, serialized-tx, 4-byte little-endian sequence] —
// spec.md §6: "[topic, serialized-tx, sequence-le]". Each field, the topic
// included, is length-prefixed with a 4-byte little-endian count; a sequence
// field that is not 4 bytes long is reported as 0. This follows the general
// framing convention the teacher's `peer` package uses for its own
// length-prefixed message bodies.
func readFrame(r *bufio.Reader) (topic string, body []byte, seq uint32, err error) {
	topicBytes, err := readLengthPrefixed(r)
	if err != nil {
		return "", nil, 0, err
	}
	body, err = readLengthPrefixed(r)
	if err != nil {
		return "", nil, 0, err
	}
	seqBytes, err := readLengthPrefixed(r)
	if err != nil {
		return "", nil, 0, err
	}
	if len(seqBytes) != 4 {
		seq = 0
	} else {
		seq = binary.LittleEndian.Uint32(seqBytes)
	}
	return string(topicBytes), body, seq, nil
}

func readLengthPrefixed(r *bufio.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
