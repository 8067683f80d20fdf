package pkg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	DefaultStreamName     = "POS_KITCHEN"
	DefaultStreamConsumer = "pos-ticket-cache"
	DefaultStreamMaxAge   = 24 * time.Hour

	defaultFetchWait  = 5 * time.Second
	defaultFetchBatch = 1000
)

// NATSStreamConfig names the JetStream stream that retains one topic and the
// durable consumer that replays it.
type NATSStreamConfig struct {
	URL          string
	StreamName   string
	Topic        string
	ConsumerName string
	MaxAge       time.Duration
	// MaxMsgs caps retained messages. Zero keeps everything within MaxAge.
	MaxMsgs      int64
	FetchMaxWait time.Duration
}

// StreamConfigFrom reads the nats.url and nats.stream.* keys for a stream
// bound to topic. Unset keys fall back to the kitchen stream defaults.
func StreamConfigFrom(config *apt.Config, topic string) (NATSStreamConfig, error) {
	cfg := NATSStreamConfig{
		URL:          config.GetStringOrDef("nats.url", nats.DefaultURL),
		StreamName:   config.GetStringOrDef("nats.stream.name", DefaultStreamName),
		Topic:        topic,
		ConsumerName: config.GetStringOrDef("nats.stream.consumer", DefaultStreamConsumer),
		MaxAge:       DefaultStreamMaxAge,
		FetchMaxWait: defaultFetchWait,
	}

	var err error
	if raw := config.GetStringOrDef("nats.stream.max_age", ""); raw != "" {
		if cfg.MaxAge, err = time.ParseDuration(raw); err != nil {
			return NATSStreamConfig{}, fmt.Errorf("invalid nats.stream.max_age %q: %w", raw, err)
		}
	}
	if raw := config.GetStringOrDef("nats.stream.max_msgs", ""); raw != "" {
		if cfg.MaxMsgs, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return NATSStreamConfig{}, fmt.Errorf("invalid nats.stream.max_msgs %q: %w", raw, err)
		}
	}
	if raw := config.GetStringOrDef("nats.stream.fetch_wait", ""); raw != "" {
		if cfg.FetchMaxWait, err = time.ParseDuration(raw); err != nil {
			return NATSStreamConfig{}, fmt.Errorf("invalid nats.stream.fetch_wait %q: %w", raw, err)
		}
	}

	return cfg, cfg.Validate()
}

func (c NATSStreamConfig) Validate() error {
	switch {
	case c.URL == "":
		return errors.New("nats stream: url is required")
	case c.StreamName == "":
		return errors.New("nats stream: stream name is required")
	case c.Topic == "":
		return errors.New("nats stream: topic is required")
	case c.ConsumerName == "":
		return errors.New("nats stream: consumer name is required")
	case c.MaxAge < 0 || c.MaxMsgs < 0:
		return errors.New("nats stream: retention limits must not be negative")
	}
	return nil
}

func (c NATSStreamConfig) streamSpec() jetstream.StreamConfig {
	spec := jetstream.StreamConfig{
		Name:     c.StreamName,
		Subjects: []string{c.Topic},
		MaxAge:   c.MaxAge,
	}
	if c.MaxMsgs > 0 {
		spec.MaxMsgs = c.MaxMsgs
	}
	return spec
}

// consumerSpec replays from the first retained message and waits for an
// explicit ack, so a crashed replica resumes where it stopped.
func (c NATSStreamConfig) consumerSpec() jetstream.ConsumerConfig {
	return jetstream.ConsumerConfig{
		Name:          c.ConsumerName,
		Durable:       c.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		FilterSubject: c.Topic,
	}
}

// NATSStream publishes kitchen events to JetStream and replays them to the
// ticket cache. It satisfies events.Publisher and events.StreamConsumer.
type NATSStream struct {
	cfg      NATSStreamConfig
	conn     *nats.Conn
	js       jetstream.JetStream
	consumer jetstream.Consumer
	consume  jetstream.ConsumeContext
	logger   apt.Logger
}

func NewNATSStream(ctx context.Context, cfg NATSStreamConfig, logger apt.Logger) (*NATSStream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.FetchMaxWait <= 0 {
		cfg.FetchMaxWait = defaultFetchWait
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("appetite-pos-stream"))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to NATS: %w", err)
	}

	s := &NATSStream{cfg: cfg, conn: conn, logger: logger}
	if err := s.ensure(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("kitchen stream ready", "stream", cfg.StreamName, "consumer", cfg.ConsumerName, "max_age", cfg.MaxAge)
	return s, nil
}

// ensure creates the stream and its durable consumer, or updates them to
// match the current config.
func (s *NATSStream) ensure(ctx context.Context) error {
	js, err := jetstream.New(s.conn)
	if err != nil {
		return fmt.Errorf("cannot open JetStream: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, s.cfg.streamSpec())
	if err != nil {
		return fmt.Errorf("cannot declare stream %s: %w", s.cfg.StreamName, err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, s.cfg.consumerSpec())
	if err != nil {
		return fmt.Errorf("cannot declare consumer %s: %w", s.cfg.ConsumerName, err)
	}

	s.js = js
	s.consumer = consumer
	return nil
}

func (s *NATSStream) Publish(ctx context.Context, topic string, msg []byte) error {
	if _, err := s.js.Publish(ctx, topic, msg); err != nil {
		return fmt.Errorf("cannot publish to stream %s: %w", s.cfg.StreamName, err)
	}
	return nil
}

// Fetch pulls up to limit retained messages and acks them. Messages without
// metadata are acked and dropped.
func (s *NATSStream) Fetch(ctx context.Context, limit int) ([]events.StreamMessage, error) {
	if limit <= 0 {
		limit = defaultFetchBatch
	}

	batch, err := s.consumer.Fetch(limit, jetstream.FetchMaxWait(s.cfg.FetchMaxWait))
	if err != nil {
		return nil, fmt.Errorf("cannot fetch from stream %s: %w", s.cfg.StreamName, err)
	}

	var out []events.StreamMessage
	for msg := range batch.Messages() {
		if m, ok := s.toStreamMessage(msg); ok {
			out = append(out, m)
		}
		_ = msg.Ack()
	}

	if err := batch.Error(); err != nil && len(out) == 0 {
		return nil, fmt.Errorf("stream %s fetch failed: %w", s.cfg.StreamName, err)
	}
	return out, nil
}

func (s *NATSStream) toStreamMessage(msg jetstream.Msg) (events.StreamMessage, bool) {
	meta, err := msg.Metadata()
	if err != nil {
		s.logger.Debug("dropping stream message without metadata", "stream", s.cfg.StreamName, "error", err)
		return events.StreamMessage{}, false
	}
	return events.StreamMessage{
		Data:      msg.Data(),
		Sequence:  meta.Sequence.Stream,
		Timestamp: meta.Timestamp.UnixNano(),
	}, true
}

// SubscribeStream delivers new messages to handler. A failed handler naks
// the message so JetStream redelivers it.
func (s *NATSStream) SubscribeStream(ctx context.Context, handler events.HandlerFunc) error {
	cc, err := s.consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(ctx, msg.Data()); err != nil {
			s.logger.Error("stream handler failed", "stream", s.cfg.StreamName, "topic", s.cfg.Topic, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("cannot consume stream %s: %w", s.cfg.StreamName, err)
	}
	s.consume = cc
	return nil
}

// Subscribe ignores topic: the consumer is bound to the stream subject.
func (s *NATSStream) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	return s.SubscribeStream(ctx, handler)
}

func (s *NATSStream) Close() error {
	if s.consume != nil {
		s.consume.Stop()
	}
	s.conn.Close()
	return nil
}
