package queue

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/brightsend/campaign-engine/internal/service"
)

// TopicSimulations carries campaign IDs whose delivery runs should execute
// asynchronously.
const TopicSimulations = "campaign_simulations"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is an in-process queue with retry, used when no broker is
// configured.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		log.Printf("job failed (attempt %d/%d): %+v, error: %v", job.RetryCount, job.MaxRetries, job.Payload, err)

		if job.RetryCount > job.MaxRetries {
			log.Printf("job permanently failed after %d attempts: %+v", job.MaxRetries, job.Payload)
			return // No requeue
		}

		// Exponential backoff before retry
		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// StartSimulationSubscriber wires queued simulation jobs to the delivery
// service. Payloads are campaign IDs.
func StartSimulationSubscriber(q Queue, delivery *service.DeliveryService) {
	err := q.Subscribe(TopicSimulations, func(payload any) error {
		campaignID, ok := payload.(int)
		if !ok {
			log.Printf("simulation job: invalid payload type %T", payload)
			return nil // no retry for garbage
		}

		result, err := delivery.SimulateDelivery(context.Background(), campaignID, nil)
		if err != nil {
			log.Printf("simulation job: campaign %d: %v", campaignID, err)
			return err // triggers retry in queue
		}

		log.Printf("simulation job: campaign %d run %s: sent=%d failed=%d total=%d",
			campaignID, result.RunID, result.Stats.Sent, result.Stats.Failed, result.Stats.Total)
		return nil
	})
	if err != nil {
		log.Printf("failed to start subscriber for %s: %v", TopicSimulations, err)
	}
}
