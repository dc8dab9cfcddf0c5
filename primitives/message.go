//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/markkurossi/sepia/field"
)

// messageTag is the ASCII tag every primitives message is framed
// with on the wire, matching the fixed-tag framing the reference
// repo's p2p.Conn uses for its own pooled messages.
const messageTag = "SSPP_MSG"

// Message is the only wire format a privacy peer pair exchanges: a
// tagged envelope naming its sender and carrying the concatenated
// outbound share vector for the round, laid out in the scheduler's
// pre-order traversal.
type Message struct {
	SenderID    int
	SenderIndex int
	Data        []field.Element
}

// Encode frames m as: 4-byte big-endian total length (of everything
// that follows), the 8-byte tag, a 4-byte sender id, a 4-byte sender
// index, a 4-byte vector length, then that many 8-byte big-endian
// field elements.
//
// field.Element is a uint64, so unlike the reference system's
// Java-object payloads there is no wider big-integer case to frame
// separately here (see DESIGN.md).
func (m *Message) Encode() []byte {
	body := make([]byte, len(messageTag)+4+4+4+len(m.Data)*8)
	pos := 0
	copy(body[pos:], messageTag)
	pos += len(messageTag)
	binary.BigEndian.PutUint32(body[pos:], uint32(m.SenderID))
	pos += 4
	binary.BigEndian.PutUint32(body[pos:], uint32(m.SenderIndex))
	pos += 4
	binary.BigEndian.PutUint32(body[pos:], uint32(len(m.Data)))
	pos += 4
	for _, v := range m.Data {
		binary.BigEndian.PutUint64(body[pos:], uint64(v))
		pos += 8
	}

	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out, uint32(len(body)))
	copy(out[4:], body)
	return out
}

// WriteMessage encodes m and writes it to w.
func WriteMessage(w io.Writer, m *Message) error {
	_, err := w.Write(m.Encode())
	return err
}

// ReadMessage reads and decodes one Message from r.
func ReadMessage(r io.Reader) (*Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	if n < uint32(len(messageTag)+12) {
		return nil, fmt.Errorf("%w: primitives message: short body", ErrProtocol)
	}
	if string(body[:len(messageTag)]) != messageTag {
		return nil, fmt.Errorf("%w: primitives message: bad tag %q", ErrProtocol, body[:len(messageTag)])
	}
	pos := len(messageTag)
	senderID := int(binary.BigEndian.Uint32(body[pos:]))
	pos += 4
	senderIndex := int(binary.BigEndian.Uint32(body[pos:]))
	pos += 4
	vecLen := int(binary.BigEndian.Uint32(body[pos:]))
	pos += 4

	want := pos + vecLen*8
	if want != len(body) {
		return nil, fmt.Errorf("%w: primitives message: vector length %d inconsistent with body size", ErrProtocol, vecLen)
	}
	data := make([]field.Element, vecLen)
	for i := range data {
		data[i] = field.Element(binary.BigEndian.Uint64(body[pos:]))
		pos += 8
	}
	return &Message{SenderID: senderID, SenderIndex: senderIndex, Data: data}, nil
}

// Messenger sends and receives primitives messages between ordered
// peer pairs, identified as [2]int{lower, higher} peer indices. This
// module implements it with MemMessenger, an in-memory pipe pair for
// tests; a socket-backed implementation can satisfy it the same way
// the reference repo's ot.IO interface serves p2p.Conn and ot.Pipe.
type Messenger interface {
	Send(peers [2]int, msg *Message) error
	Receive(peers [2]int) (*Message, error)
	// Down reports whether the counterpart in peers is known to have
	// crashed; the driver then calls neither Send nor Receive for
	// that pair and substitutes a dummy message.
	Down(peers [2]int) bool
}
