package notify

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"group-service/internal/rabbitmq"
)

// PushMessage is one device push handed to the external dispatcher.
type PushMessage struct {
	Token   string            `json:"token"`
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Payload map[string]string `json:"payload,omitempty"`
}

// EventName labels the message for publisher logs.
func (PushMessage) EventName() string { return "push_message" }

// Dispatcher delivers a push to one device token.
type Dispatcher interface {
	Send(ctx context.Context, msg PushMessage) error
}

// QueueDispatcher hands pushes to the AMQP exchange for a downstream sender.
type QueueDispatcher struct {
	publisher  rabbitmq.Publisher
	routingKey string
}

// NewQueueDispatcher constructs a QueueDispatcher.
func NewQueueDispatcher(publisher rabbitmq.Publisher, routingKey string) *QueueDispatcher {
	return &QueueDispatcher{publisher: publisher, routingKey: routingKey}
}

func (d *QueueDispatcher) Send(ctx context.Context, msg PushMessage) error {
	return d.publisher.Publish(ctx, d.routingKey, msg)
}

// NATSDispatcher publishes pushes on a NATS subject.
type NATSDispatcher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSDispatcher constructs a NATSDispatcher.
func NewNATSDispatcher(conn *nats.Conn, subject string) *NATSDispatcher {
	return &NATSDispatcher{conn: conn, subject: subject}
}

func (d *NATSDispatcher) Send(ctx context.Context, msg PushMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return d.conn.Publish(d.subject, data)
}

// ConnectNATS dials NATS with reconnect handling.
func ConnectNATS(url string, maxReconnects int, reconnectWait time.Duration, logger zerolog.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("group-service"),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("disconnected from nats")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("reconnected to nats")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info().Msg("nats connection closed")
		}),
		nats.Timeout(10 * time.Second),
	}
	return nats.Connect(url, opts...)
}

// NoopDispatcher drops pushes.
type NoopDispatcher struct {
	logger zerolog.Logger
}

// NewNoopDispatcher constructs a NoopDispatcher.
func NewNoopDispatcher(logger zerolog.Logger) NoopDispatcher {
	return NoopDispatcher{logger: logger}
}

func (d NoopDispatcher) Send(ctx context.Context, msg PushMessage) error {
	d.logger.Debug().Str("title", msg.Title).Msg("push dropped by noop dispatcher")
	return nil
}

// BreakerConfig tunes the circuit breaker around a Dispatcher.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	Cooldown         time.Duration
	HalfOpenRequests uint32
	Timeout          time.Duration
}

// BreakerDispatcher fails fast while the wrapped transport keeps failing.
type BreakerDispatcher struct {
	next    Dispatcher
	cb      *gobreaker.CircuitBreaker[any]
	timeout time.Duration
}

// NewBreakerDispatcher wraps next in a circuit breaker.
func NewBreakerDispatcher(next Dispatcher, cfg BreakerConfig, logger zerolog.Logger) *BreakerDispatcher {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("push breaker state changed")
		},
	}
	return &BreakerDispatcher{
		next:    next,
		cb:      gobreaker.NewCircuitBreaker[any](settings),
		timeout: cfg.Timeout,
	}
}

func (d *BreakerDispatcher) Send(ctx context.Context, msg PushMessage) error {
	_, err := d.cb.Execute(func() (any, error) {
		sendCtx := ctx
		if d.timeout > 0 {
			var cancel context.CancelFunc
			sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
		return nil, d.next.Send(sendCtx, msg)
	})
	return err
}

// State reports the breaker state for health output.
func (d *BreakerDispatcher) State() string {
	return d.cb.State().String()
}
