package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/core/ports"
)

// Subjects and streams used by the chart service.
const (
	ChartComputedPrefix = "astro.chart.computed."
	ChartRequestPrefix  = "astro.chart.request."

	ChartComputedWildcard = ChartComputedPrefix + ">"
	ChartRequestWildcard  = ChartRequestPrefix + ">"

	chartWorkerDurable = "chart-worker"
)

// ChartComputedSubject is the subject a computed chart is announced on.
func ChartComputedSubject(id string) string { return ChartComputedPrefix + id }

// ChartRequestSubject is the subject an async chart request is queued on.
func ChartRequestSubject(requestID string) string { return ChartRequestPrefix + requestID }

// Streams returns the JetStream streams the service relies on.
func Streams() []nats.StreamConfig {
	return []nats.StreamConfig{
		{
			Name:      "ASTRO_CHARTS",
			Subjects:  []string{ChartComputedWildcard},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "ASTRO_REQUESTS",
			Subjects:  []string{ChartRequestWildcard},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStreams(js nats.JetStreamContext) error {
	for _, cfg := range Streams() {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist; try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// PublishChartComputed announces a freshly computed chart. The chart ID
// doubles as the JetStream message ID so retries are de-duplicated.
func (p *Publisher) PublishChartComputed(ctx context.Context, chart *domain.Chart) error {
	data, err := json.Marshal(chart)
	if err != nil {
		return err
	}
	id := chart.ID.String()
	return p.publish(ctx, ChartComputedSubject(id), id, data)
}

// PublishChartRequest queues a chart for the worker.
func (p *Publisher) PublishChartRequest(ctx context.Context, req *ports.ChartRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return p.publish(ctx, ChartRequestSubject(req.RequestID), req.RequestID, data)
}

func (p *Publisher) publish(ctx context.Context, subject, msgID string, data []byte) error {
	msg := nats.NewMsg(subject)
	msg.Header.Set(nats.MsgIdHdr, msgID)
	msg.Data = data
	_, err := p.js.PublishMsg(msg, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("astrochart"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
