package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat-relay/internal/domain"
	"chat-relay/internal/metrics"
	"chat-relay/internal/rag"
	relay_errors "chat-relay/pkg/errors"
	"chat-relay/pkg/logger"

	"go.uber.org/zap"
)

// Querier answers a chat message. *rag.Client satisfies it.
type Querier interface {
	Query(ctx context.Context, text string) (string, error)
}

type Config struct {
	// UpstreamURL is the RAG service base URL. Empty disables relaying.
	UpstreamURL string
}

type Outcome int

const (
	// OutcomeReplied carries the upstream answer.
	OutcomeReplied Outcome = iota
	// OutcomeFailed carries the generic failure message.
	OutcomeFailed
	// OutcomeSkipped emits nothing.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReplied:
		return metrics.OutcomeReplied
	case OutcomeFailed:
		return metrics.OutcomeFailed
	default:
		return metrics.OutcomeSkipped
	}
}

// Result is what the transport should do with one inbound message.
type Result struct {
	Outcome Outcome
	Message *domain.OutboundMessage
	Err     error
}

type Relay struct {
	config  Config
	querier Querier
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(cfg Config, querier Querier, l *logger.Logger, m *metrics.Metrics) *Relay {
	if l == nil {
		l = logger.Nop()
	}
	return &Relay{
		config:  cfg,
		querier: querier,
		logger:  l.Named("relay"),
		metrics: m,
		now:     time.Now,
	}
}

// Handle forwards one chat message to the RAG service. It never panics and
// never returns an error directly: failures are folded into the Result.
func (r *Relay) Handle(ctx context.Context, connectionID, clientID string, msg domain.InboundMessage) (res Result) {
	log := r.logger.WithContext(ctx).With(
		zap.String("connection_id", connectionID),
		zap.String("client_id", clientID),
	)

	defer func() {
		if p := recover(); p != nil {
			res = r.fail(log, fmt.Errorf("%w: %v", relay_errors.ErrRelayPanic, p))
		}
		r.metrics.RecordMessage(res.Outcome.String())
	}()

	sender := msg.EffectiveSender(connectionID)
	log.Debug("chat message received",
		zap.String("sender", sender),
		zap.String("text", msg.Text),
	)

	if r.config.UpstreamURL == "" {
		log.Error("chat message dropped", zap.Error(relay_errors.ErrUpstreamNotConfigured))
		return Result{Outcome: OutcomeSkipped, Err: relay_errors.ErrUpstreamNotConfigured}
	}
	log.Debug("querying rag service", zap.String("endpoint", rag.Endpoint(r.config.UpstreamURL)))

	start := r.now()
	answer, err := r.querier.Query(ctx, msg.Text)
	r.metrics.ObserveUpstream(r.now().Sub(start), err)
	if err != nil {
		var netErr *rag.NetworkError
		if errors.As(err, &netErr) {
			log.Error("rag service request failed", netErr.Fields()...)
		}
		return r.fail(log, err)
	}

	log.Debug("rag service answered", zap.Int("length", len(answer)))
	out := domain.NewServerMessage(answer, r.now())
	return Result{Outcome: OutcomeReplied, Message: &out}
}

func (r *Relay) fail(log *zap.Logger, err error) Result {
	log.Error("chat message failed", zap.Error(err))
	out := domain.NewServerMessage(relay_errors.FailureMessage, r.now())
	return Result{Outcome: OutcomeFailed, Message: &out, Err: err}
}
