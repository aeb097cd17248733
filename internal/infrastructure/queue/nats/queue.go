package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mockmate/interview-engine/internal/infrastructure/resilience"
)

const workerQueueGroup = "embedding-workers"

// Queue carries question embedding warm-up jobs. The message body is the
// question number.
type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("interview-engine"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishQuestionEmbedding(ctx context.Context, questionNumber string) error {
	payload, err := encodeJob(questionNumber)
	if err != nil {
		return err
	}
	_, err = resilience.Call(ctx, q.executor, "nats.publish", func(_ context.Context) (struct{}, error) {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return struct{}{}, fmt.Errorf("nats publish: %w", err)
		}
		return struct{}{}, nil
	}, classifyNATSError)
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeQuestionEmbedding blocks until ctx is done, then drains the
// subscription so in-flight jobs finish.
func (q *Queue) SubscribeQuestionEmbedding(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workerQueueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		questionNumber, err := decodeJob(msg.Data)
		if err != nil {
			slog.Warn("embedding_job_rejected", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, questionNumber); err != nil {
			slog.Error("embedding_job_failed", "question_number", questionNumber, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func encodeJob(questionNumber string) ([]byte, error) {
	questionNumber = strings.TrimSpace(questionNumber)
	if questionNumber == "" {
		return nil, errors.New("empty question number")
	}
	return []byte(questionNumber), nil
}

func decodeJob(data []byte) (string, error) {
	questionNumber := strings.TrimSpace(string(data))
	if questionNumber == "" {
		return "", errors.New("empty embedding job payload")
	}
	return questionNumber, nil
}
