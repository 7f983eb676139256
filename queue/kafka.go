package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/IBM/sarama"
)

// KafkaQueue publishes jobs to a topic. Messages are keyed by article ID
// so retries for the same article land on the same partition in order.
type KafkaQueue struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaQueue(brokers []string, topic string) (*KafkaQueue, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &KafkaQueue{producer: producer, topic: topic}, nil
}

func (q *KafkaQueue) Enqueue(_ context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	partition, offset, err := q.producer.SendMessage(&sarama.ProducerMessage{
		Topic: q.topic,
		Key:   sarama.StringEncoder(job.ArticleID.String()),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	log.Printf("Enqueued article %s (partition=%d, offset=%d)", job.ArticleID, partition, offset)
	return nil
}

func (q *KafkaQueue) Close() error {
	return q.producer.Close()
}

// Consumer pulls jobs off the topic as part of a consumer group and hands
// them to the processor.
type Consumer struct {
	group     sarama.ConsumerGroup
	topic     string
	groupID   string
	processor Processor
	ready     chan struct{}
}

func NewConsumer(brokers []string, topic, groupID string, processor Processor) (*Consumer, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}
	return &Consumer{
		group:     group,
		topic:     topic,
		groupID:   groupID,
		processor: processor,
		ready:     make(chan struct{}),
	}, nil
}

// Start begins consuming and returns once the group session is set up.
func (c *Consumer) Start(ctx context.Context) error {
	handler := &groupHandler{processor: c.processor, ready: c.ready}

	go func() {
		for {
			if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
				if err == context.Canceled {
					return
				}
				log.Printf("kafka consume error: %v", err)
			}
			if ctx.Err() != nil {
				return
			}
			handler.ready = make(chan struct{})
		}
	}()

	<-c.ready
	log.Printf("Kafka consumer started (group: %s, topic: %s)", c.groupID, c.topic)

	go func() {
		for err := range c.group.Errors() {
			log.Printf("kafka consumer error: %v", err)
		}
	}()
	return nil
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	processor Processor
	ready     chan struct{}
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			handleMessage(session.Context(), h.processor, message.Value)
			// Always mark: a failed job is already recorded as FAILED on
			// the article row, and redelivery would be refused anyway.
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func handleMessage(ctx context.Context, processor Processor, payload []byte) {
	var job Job
	if err := json.Unmarshal(payload, &job); err != nil {
		log.Printf("dropping malformed job message: %v", err)
		return
	}
	if err := processor(ctx, job); err != nil {
		log.Printf("processing article %s failed: %v", job.ArticleID, err)
	}
}
