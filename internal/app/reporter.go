package app

import (
	"context"
	"time"

	"civil-quiz/internal/domain"
	"go.uber.org/zap"
)

// DateLayout formats the local timestamp sent with a result.
const DateLayout = "1/2/2006, 3:04:05 PM"

// ScoreClient posts a result to the score endpoint. Delivery is not
// confirmed: a nil error only means the request went out.
type ScoreClient interface {
	Submit(ctx context.Context, record domain.ResultRecord) error
}

// Connectivity reports whether the network is reachable at all.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// Reporter builds result records and hands them to the score endpoint once.
// Nothing is queued for a later attempt.
type Reporter struct {
	client ScoreClient
	net    Connectivity
	now    func() time.Time
	log    *zap.Logger
}

func NewReporter(client ScoreClient, net Connectivity, log *zap.Logger) *Reporter {
	return &Reporter{client: client, net: net, now: time.Now, log: log}
}

// NewReporterWithClock is used by tests for a fixed date.
func NewReporterWithClock(client ScoreClient, net Connectivity, log *zap.Logger, now func() time.Time) *Reporter {
	r := NewReporter(client, net, log)
	r.now = now
	return r
}

// Record builds the payload for a finished attempt.
func (r *Reporter) Record(user domain.UserIdentity, topic string, score int) domain.ResultRecord {
	return domain.ResultRecord{
		Date:          r.now().Local().Format(DateLayout),
		Name:          user.Name,
		Qualification: user.Qualification,
		Topic:         topic,
		Score:         score,
	}
}

// Sync makes at most one submission attempt.
func (r *Reporter) Sync(ctx context.Context, record domain.ResultRecord) domain.SyncStatus {
	if !r.net.Online(ctx) {
		r.log.Info("offline, result not sent", zap.String("topic", record.Topic), zap.Int("score", record.Score))
		return domain.SyncOfflineNoInternet
	}
	if err := r.client.Submit(ctx, record); err != nil {
		r.log.Warn("result sync failed", zap.String("topic", record.Topic), zap.Error(err))
		return domain.SyncOfflineNetwork
	}
	r.log.Info("result submitted", zap.String("topic", record.Topic), zap.Int("score", record.Score))
	return domain.SyncSubmitted
}

// StaticConnectivity reports a fixed state; used with sync.offline and in tests.
type StaticConnectivity bool

func (s StaticConnectivity) Online(context.Context) bool { return bool(s) }
