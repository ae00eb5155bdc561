// Package eventbus publishes weave-lifecycle events (boot, weave,
// fire, dispose) over NATS, mirroring the teacher's own pairing of an
// in-process NATS server with a client connection for IPC. A Weaver
// takes a Sink interface; the NATS-backed Bus here is one concrete
// implementation, dependency-injected so tests can use a no-op sink
// instead.
package eventbus

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/aspectrt/aspectrt/internal/log"
)

// Kind identifies which weave-lifecycle moment an Event describes.
type Kind string

const (
	KindBoot    Kind = "boot"
	KindWeave   Kind = "weave"
	KindFire    Kind = "fire"
	KindDispose Kind = "dispose"
)

// Subject is the NATS subject events of kind k are published to; a
// subscriber can use a wildcard such as "aspectrt.weave.>" to receive
// every lifecycle event.
func (k Kind) Subject() string {
	return "aspectrt.weave." + string(k)
}

// Event is the payload published for every lifecycle moment.
type Event struct {
	Kind      Kind           `json:"kind"`
	AspectID  string         `json:"aspectId,omitempty"`
	Target    string         `json:"target,omitempty"`
	Detail    string         `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Sink is the interface weaver.Weaver publishes lifecycle events
// through. It is intentionally narrow so a no-op or test double is
// trivial to write.
type Sink interface {
	Publish(Event) error
}

// NopSink discards every event; the default when no Sink is injected.
type NopSink struct{}

func (NopSink) Publish(Event) error { return nil }

// Bus is a NATS-backed Sink. Embed holds an in-process nats-server
// instance that Bus started itself (used for tests and single-binary
// deployments, per the teacher's own job-server pairing); Bus created
// via Connect instead talks to a server the caller already runs.
type Bus struct {
	conn   *nats.Conn
	embed  *server.Server
	closer func()
}

// StartEmbedded boots an in-process NATS server listening on the
// loopback interface only and connects a Bus to it. Closing the
// returned Bus shuts the embedded server down too.
func StartEmbedded() (*Bus, error) {
	opts := &server.Options{
		Host:       "127.0.0.1",
		Port:       server.RANDOM_PORT,
		DontListen: false,
	}

	srv, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("eventbus: create embedded server: %w", err)
	}
	srv.Start()

	if !srv.ReadyForConnections(5 * time.Second) {
		srv.Shutdown()
		return nil, fmt.Errorf("eventbus: embedded server did not become ready")
	}

	conn, err := nats.Connect(srv.ClientURL(), nats.Name(fmt.Sprintf("aspectrt[%d]", os.Getpid())))
	if err != nil {
		srv.Shutdown()
		return nil, fmt.Errorf("eventbus: connect to embedded server: %w", err)
	}

	return &Bus{conn: conn, embed: srv, closer: srv.Shutdown}, nil
}

// Connect dials an already-running NATS server at addr.
func Connect(addr string) (*Bus, error) {
	conn, err := nats.Connect(addr, nats.Name(fmt.Sprintf("aspectrt[%d]", os.Getpid())))
	if err != nil {
		return nil, fmt.Errorf("eventbus: connect: %w", err)
	}
	return &Bus{conn: conn}, nil
}

// Publish implements Sink by JSON-encoding evt and publishing it to
// evt.Kind.Subject().
func (b *Bus) Publish(evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("eventbus: encode event: %w", err)
	}
	if err := b.conn.Publish(evt.Kind.Subject(), data); err != nil {
		log.Warnf("eventbus: publish %s failed: %v", evt.Kind, err)
		return err
	}
	return nil
}

// Subscribe registers fn to run for every event published under
// subject (use a Kind.Subject() for one kind, or "aspectrt.weave.>"
// for all of them).
func (b *Bus) Subscribe(subject string, fn func(Event)) (*nats.Subscription, error) {
	return b.conn.Subscribe(subject, func(msg *nats.Msg) {
		var evt Event
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			log.Warnf("eventbus: decode event on %s: %v", msg.Subject, err)
			return
		}
		fn(evt)
	})
}

// Close closes the connection (without draining it) and, if this Bus started an
// embedded server, shuts that down too.
func (b *Bus) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
	if b.closer != nil {
		b.closer()
	}
}
