package sqsqueue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/sony/gobreaker"

	"notifsync/internal/domain"
)

// Publisher announces accepted status changes on the outbound queue. The
// outbound queue is never the one the consumer reads, so a published event
// cannot come back through our own update path.
type Publisher struct {
	SQS      *sqs.Client
	QueueURL string
	Breaker  *gobreaker.CircuitBreaker
}

func (p *Publisher) Publish(ctx context.Context, ev domain.StatusChangeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	send := func() (any, error) {
		return p.SQS.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:    &p.QueueURL,
			MessageBody: str(string(body)),
		})
	}

	if p.Breaker == nil {
		_, err = send()
		return err
	}
	_, err = p.Breaker.Execute(send)
	return err
}

// NewPublishBreaker trips after 5 consecutive failed sends and probes again
// after 30s. Publish errors are already swallowed upstream; the breaker just
// stops us from hammering a dead broker on every request.
func NewPublishBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "sqs-publish",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

func str(s string) *string { return &s }
