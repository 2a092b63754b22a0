package queue

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// SimulationJob is the wire payload for one queued delivery simulation.
type SimulationJob struct {
	CampaignID int `json:"campaign_id"`
}

// MaxSimulationRetries caps how many times a failed simulation job is
// re-published before the worker drops it.
const MaxSimulationRetries = 3

const retryCountHeader = "x-retry-count"

// RetryCount reads the retry counter from message headers. A missing or
// malformed header counts as the first attempt.
func RetryCount(headers amqp.Table) int32 {
	if headers == nil {
		return 0
	}
	switch v := headers[retryCountHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	}
	return 0
}

// RetryHeaders builds the headers for a re-published attempt. A plain
// Nack-requeue redelivers the original message unchanged, so the counter
// only advances when failures are re-published with these headers.
func RetryHeaders(count int32) amqp.Table {
	return amqp.Table{retryCountHeader: count}
}

// AMQPPublisher publishes simulation jobs to a durable broker queue,
// consumed by cmd/worker.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// DialAMQP connects to the broker and declares the simulations queue.
func DialAMQP(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		TopicSimulations,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

// PublishSimulation enqueues a delivery simulation for the campaign.
func (p *AMQPPublisher) PublishSimulation(campaignID int) error {
	body, err := json.Marshal(SimulationJob{CampaignID: campaignID})
	if err != nil {
		return err
	}
	return p.ch.Publish(
		"",
		TopicSimulations,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
