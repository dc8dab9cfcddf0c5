//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"fmt"
	"io"
	"sync"
)

// MemMessenger is an in-memory Messenger backed by io.Pipe, one
// unidirectional pipe per ordered pair of peers, the same pattern the
// reference repo's ot.Pipe uses to give two in-process goroutines a
// blocking, synchronous channel without a real socket.
type MemMessenger struct {
	index   int
	writers []*io.PipeWriter // writers[j] carries this peer's messages to peer j
	readers []*io.PipeReader // readers[j] carries peer j's messages to this peer

	mu   sync.Mutex
	down map[int]bool
}

// NewMemMessengers builds a full mesh of in-memory messengers for
// numPeers privacy peers, indexed 0..numPeers-1.
func NewMemMessengers(numPeers int) []*MemMessenger {
	readers := make([][]*io.PipeReader, numPeers)
	writers := make([][]*io.PipeWriter, numPeers)
	for i := range readers {
		readers[i] = make([]*io.PipeReader, numPeers)
		writers[i] = make([]*io.PipeWriter, numPeers)
	}
	for i := 0; i < numPeers; i++ {
		for j := 0; j < numPeers; j++ {
			if i == j {
				continue
			}
			r, w := io.Pipe()
			readers[j][i] = r
			writers[i][j] = w
		}
	}
	out := make([]*MemMessenger, numPeers)
	for i := range out {
		out[i] = &MemMessenger{
			index:   i,
			writers: writers[i],
			readers: readers[i],
			down:    make(map[int]bool),
		}
	}
	return out
}

func (m *MemMessenger) other(peers [2]int) (int, error) {
	switch {
	case peers[0] == m.index:
		return peers[1], nil
	case peers[1] == m.index:
		return peers[0], nil
	default:
		return 0, fmt.Errorf("%w: messenger %d not a party to pair %v", ErrProtocol, m.index, peers)
	}
}

// Send implements Messenger.
func (m *MemMessenger) Send(peers [2]int, msg *Message) error {
	other, err := m.other(peers)
	if err != nil {
		return err
	}
	return WriteMessage(m.writers[other], msg)
}

// Receive implements Messenger.
func (m *MemMessenger) Receive(peers [2]int) (*Message, error) {
	other, err := m.other(peers)
	if err != nil {
		return nil, err
	}
	return ReadMessage(m.readers[other])
}

// Down implements Messenger.
func (m *MemMessenger) Down(peers [2]int) bool {
	other, err := m.other(peers)
	if err != nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.down[other]
}

// MarkDown simulates peer crashing from this messenger's point of
// view: the driver then neither sends to nor receives from it, and
// substitutes a dummy message for its contribution.
func (m *MemMessenger) MarkDown(peer int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down[peer] = true
}
