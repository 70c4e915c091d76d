package libbus

import (
	"context"
	"sync"
)

// InMem is a same-process Messenger. Publish delivers to every local Stream
// subscriber; no network is involved.
type InMem struct {
	mu      sync.RWMutex
	closed  bool
	streams map[string][]chan<- []byte
}

// NewInMem returns a new in-memory Messenger.
func NewInMem() *InMem {
	return &InMem{streams: make(map[string][]chan<- []byte)}
}

func (p *InMem) Publish(ctx context.Context, subject string, data []byte) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrConnectionClosed
	}
	// Copy the subscriber list so the lock is not held while sending.
	subs := make([]chan<- []byte, len(p.streams[subject]))
	copy(subs, p.streams[subject])
	p.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- data:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *InMem) Stream(ctx context.Context, subject string, ch chan<- []byte) (Subscription, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	p.streams[subject] = append(p.streams[subject], ch)
	sub := &inmemSubscription{subject: subject, ch: ch, inmem: p}
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()

	return sub, nil
}

func (p *InMem) Close() error {
	p.mu.Lock()
	p.closed = true
	p.streams = make(map[string][]chan<- []byte)
	p.mu.Unlock()
	return nil
}

type inmemSubscription struct {
	subject string
	ch      chan<- []byte
	inmem   *InMem
}

func (s *inmemSubscription) Unsubscribe() error {
	s.inmem.mu.Lock()
	defer s.inmem.mu.Unlock()
	subs := s.inmem.streams[s.subject]
	for i, c := range subs {
		if c == s.ch {
			s.inmem.streams[s.subject] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	return nil
}

var _ Messenger = (*InMem)(nil)
