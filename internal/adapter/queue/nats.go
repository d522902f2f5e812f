package queue

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type NATSQueue struct {
	conn  *nats.Conn
	group string
	log   *zap.Logger
}

func NewNATSQueue(url, group string, log *zap.Logger) (MessageQueue, error) {
	nc, err := nats.Connect(url,
		nats.Name("smilecrm-voice"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info("Successfully connected to NATS", zap.String("url", url))
	return &NATSQueue{
		conn:  nc,
		group: group,
		log:   log,
	}, nil
}

func (q *NATSQueue) Publish(subject string, data []byte) error {
	return q.conn.Publish(subject, data)
}

// Subscribe joins the queue group when one is configured, so each event is
// handled by a single replica.
func (q *NATSQueue) Subscribe(subject string, handler func(data []byte) error) error {
	cb := func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			q.log.Error("Error processing message", zap.String("subject", subject), zap.Error(err))
		}
	}
	var err error
	if q.group != "" {
		_, err = q.conn.QueueSubscribe(subject, q.group, cb)
	} else {
		_, err = q.conn.Subscribe(subject, cb)
	}
	return err
}

func (q *NATSQueue) Close() error {
	return q.conn.Drain()
}
