package queue

import "context"

// Queue and exchange names for the delivery pipeline. Jobs with a future
// not-before timestamp park in the wait queue and dead-letter into the work
// queue once their per-message TTL expires.
const (
	WorkQueueName = "deliveries"
	WaitQueueName = "deliveries.wait"
	DLQName       = "dlq.deliveries"

	dlxExchangeName  = "notifyhub.dlx"
	waitExchangeName = "notifyhub.wait"
)

// Publisher publishes delivery jobs to the dispatch queue. Jobs carrying a
// not-before timestamp must not become visible to consumers before it.
type Publisher interface {
	Publish(ctx context.Context, job DeliveryJob) error
	Close() error
}

// JobHandler handles a consumed delivery job.
type JobHandler func(ctx context.Context, job DeliveryJob) error

// Consumer consumes delivery jobs from the dispatch queue with
// at-least-once semantics.
type Consumer interface {
	Consume(ctx context.Context, handler JobHandler) error
	Close() error
}
