package libbus

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Config holds NATS connection settings.
type Config struct {
	NATSURL      string
	NATSUser     string
	NATSPassword string
}

type natsMessenger struct {
	nc *nats.Conn
}

// NewPubSub connects to a NATS server. Use when more than one process (or
// device) should observe the same store events; single-process setups use
// NewInMem.
func NewPubSub(ctx context.Context, cfg *Config) (Messenger, error) {
	opts := []nats.Option{nats.Name("storesync")}
	if cfg.NATSUser != "" {
		opts = append(opts, nats.UserInfo(cfg.NATSUser, cfg.NATSPassword))
	}
	nc, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("libbus: failed to connect to nats: %w", err)
	}
	return &natsMessenger{nc: nc}, nil
}

func (p *natsMessenger) Publish(ctx context.Context, subject string, data []byte) error {
	if p.nc.IsClosed() {
		return ErrConnectionClosed
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("libbus: publish %q: %w", subject, err)
	}
	return nil
}

func (p *natsMessenger) Stream(ctx context.Context, subject string, ch chan<- []byte) (Subscription, error) {
	if p.nc.IsClosed() {
		return nil, ErrConnectionClosed
	}
	sub, err := p.nc.Subscribe(subject, func(msg *nats.Msg) {
		select {
		case ch <- msg.Data:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, fmt.Errorf("libbus: subscribe %q: %w", subject, err)
	}

	wrapped := &natsSubscription{sub: sub}
	go func() {
		<-ctx.Done()
		_ = wrapped.Unsubscribe()
	}()
	return wrapped, nil
}

func (p *natsMessenger) Close() error {
	p.nc.Close()
	return nil
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s *natsSubscription) Unsubscribe() error {
	if !s.sub.IsValid() {
		return nil
	}
	return s.sub.Unsubscribe()
}

var _ Messenger = (*natsMessenger)(nil)
