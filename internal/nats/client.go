package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	streamName     = "CONTROLIA_EVENTS"
	subjectPrefix  = "controlia"
	publishTimeout = 5 * time.Second
)

// Event subjects published by the service.
const (
	SubjectTenantStatusChanged = subjectPrefix + ".empresa.status"
	SubjectChatTurnCompleted   = subjectPrefix + ".chat.turno"
	SubjectBillingEvent        = subjectPrefix + ".billing.evento"
)

// Client wraps a JetStream connection for domain events. A nil *Client
// degrades to no-ops so the service runs without NATS.
type Client struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Logger
}

// NewClient connects to NATS and ensures the event stream exists
func NewClient(url string, logger *logrus.Logger) (*Client, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to get jetstream context: %w", err)
	}

	_, err = js.StreamInfo(streamName)
	if err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      streamName,
			Subjects:  []string{subjectPrefix + ".>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create event stream: %w", err)
		}
	}

	logger.WithField("url", url).Info("Connected to NATS")
	return &Client{conn: conn, js: js, logger: logger}, nil
}

// Publish sends a domain event. Best effort: errors are logged, never
// returned, so event delivery never fails user requests.
func (c *Client) Publish(subject string, payload interface{}) {
	if c == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.WithError(err).WithField("subject", subject).Error("Failed to encode event")
		return
	}
	if _, err := c.js.Publish(subject, data, nats.AckWait(publishTimeout)); err != nil {
		c.logger.WithError(err).WithField("subject", subject).Warn("Failed to publish event")
	}
}

// HealthCheck reports connection status
func (c *Client) HealthCheck() error {
	if c == nil {
		return fmt.Errorf("nats not configured")
	}
	if !c.conn.IsConnected() {
		return fmt.Errorf("nats connection lost")
	}
	return nil
}

// Close drains and closes the connection
func (c *Client) Close() {
	if c == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.logger.WithError(err).Warn("Failed to drain nats connection")
	}
}
