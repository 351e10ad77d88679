// Package publish pushes compiled sheets to a live preview server over
// socket.io.
package publish

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/knitgrid/internal/compiler"
	"github.com/vk/knitgrid/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultEvent is the event sheets are emitted on when none is configured.
const DefaultEvent = "sheet"

// DefaultTimeout bounds connecting and each acknowledgement.
const DefaultTimeout = 10 * time.Second

// Config describes the preview server.
type Config struct {
	URL       string
	Namespace string
	Event     string
	// AckEvent, if set, is awaited after every emit.
	AckEvent           string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Validate fills defaults and checks the URL.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("publish URL is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("failed to parse publish URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("publish URL '%s' needs a scheme and a host", c.URL)
	}
	if c.Namespace == "" {
		c.Namespace = "/"
	}
	if c.Event == "" {
		c.Event = DefaultEvent
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}

// Publisher is a connected socket.io client.
type Publisher struct {
	cfg    Config
	client *socket.Socket
}

// Connect dials the preview server and waits for the connection.
func Connect(ctx context.Context, cfg Config) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx).With("publisher", cfg.URL, "namespace", cfg.Namespace)
	logger.Debug("Connecting to preview server...")

	parsedURL, _ := url.Parse(cfg.URL)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connected := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Connected to preview server.", "sid", io.Id())
		notify(connected, nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		notify(connected, err)
	})
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(cfg.Timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", cfg.Timeout)
	}

	logger.Info("Publisher connected.")
	return &Publisher{cfg: cfg, client: io}, nil
}

// Publish emits one sheet and, when an acknowledgement event is configured,
// waits for it.
func (p *Publisher) Publish(ctx context.Context, sheet *compiler.Sheet) error {
	logger := ctxlog.FromContext(ctx).With("event", p.cfg.Event, "sheet", sheet.Title)
	payload, err := Payload(sheet)
	if err != nil {
		return err
	}

	var acked chan error
	if p.cfg.AckEvent != "" {
		acked = make(chan error, 1)
		p.client.Once(types.EventName(p.cfg.AckEvent), func(...any) {
			notify(acked, nil)
		})
	}

	logger.Debug("Emitting sheet.", "lines", len(sheet.Lines))
	p.client.Emit(p.cfg.Event, payload)
	if acked == nil {
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()
	select {
	case <-acked:
		logger.Debug("Sheet acknowledged.", "ack_event", p.cfg.AckEvent)
		return nil
	case <-opCtx.Done():
		return fmt.Errorf("timed out after %v waiting for event '%s'", p.cfg.Timeout, p.cfg.AckEvent)
	}
}

// PublishAll emits sheets in order.
func (p *Publisher) PublishAll(ctx context.Context, sheets []*compiler.Sheet) error {
	for _, s := range sheets {
		if err := p.Publish(ctx, s); err != nil {
			return fmt.Errorf("failed to publish '%s': %w", s.Title, err)
		}
	}
	ctxlog.FromContext(ctx).Info("Sheets published.", "count", len(sheets))
	return nil
}

// Close disconnects from the server.
func (p *Publisher) Close() error {
	p.client.Disconnect()
	return nil
}

// Payload converts a sheet to the generic map the socket.io encoder sends.
func Payload(sheet *compiler.Sheet) (map[string]any, error) {
	raw, err := json.Marshal(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sheet: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to encode sheet: %w", err)
	}
	return out, nil
}

// notify delivers err unless a result is already waiting; socket.io may fire
// connect_error once per reconnection attempt.
func notify(ch chan error, err error) {
	select {
	case ch <- err:
	default:
	}
}
