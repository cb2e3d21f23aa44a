package server

import (
	"sync"

	"github.com/TFMV/forcegraph/ingest"
	"github.com/TFMV/forcegraph/models"
)

// store holds the active payload and notifies sessions when it is replaced
type store struct {
	mu          sync.RWMutex
	payload     *ingest.Payload
	version     uint64
	subscribers map[chan struct{}]struct{}
}

func newStore(payload *ingest.Payload) *store {
	return &store{
		payload:     payload,
		version:     1,
		subscribers: make(map[chan struct{}]struct{}),
	}
}

// Get returns the active payload and its version
func (s *store) Get() (*ingest.Payload, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payload, s.version
}

// Graph builds a fresh graph from the active payload
func (s *store) Graph() (*models.Graph, uint64, error) {
	payload, version := s.Get()
	g, err := payload.Graph()
	return g, version, err
}

// Set replaces the payload and signals every subscriber
func (s *store) Set(payload *ingest.Payload) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = payload
	s.version++
	for ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return s.version
}

// Subscribe returns a channel that receives a signal after each Set
func (s *store) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe stops signals to ch
func (s *store) Unsubscribe(ch chan struct{}) {
	s.mu.Lock()
	delete(s.subscribers, ch)
	s.mu.Unlock()
}
