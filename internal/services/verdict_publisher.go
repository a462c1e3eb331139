package services

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	kafkautils "github.com/fraudlens/transaction-intake/pkg/kafka"
	"github.com/fraudlens/transaction-intake/pkg/views"
	"go.uber.org/zap"
)

// VerdictPublisher emits verdict events for downstream consumers (alerting,
// analytics). Publishing is best effort: a failure is logged and never fails
// or delays the submission that produced the verdict.
type VerdictPublisher interface {
	PublishVerdict(event views.VerdictEvent) error
	Close()
}

// KafkaPublisherConfig holds configuration for the Kafka verdict publisher.
type KafkaPublisherConfig struct {
	Brokers    string
	Topic      string
	Partitions int
	RetentionMs int64
}

type kafkaVerdictPublisher struct {
	logger   *zap.Logger
	producer *kafka.Producer
	topic    string
	partitions uint32
}

// NewKafkaVerdictPublisher bootstraps the verdict topic and creates an
// idempotent producer for it.
func NewKafkaVerdictPublisher(logger *zap.Logger, ctx context.Context, cnf KafkaPublisherConfig) (VerdictPublisher, error) {
	topicConfig := kafkautils.KafkaConfig{
		BootstrapServers: cnf.Brokers,
		Topics: []kafkautils.TopicConfig{
			{
				Topic:             cnf.Topic,
				NumPartitions:     cnf.Partitions,
				ReplicationFactor: 1,
				Config: map[string]string{
					"cleanup.policy": "delete",
					"retention.ms":   fmt.Sprintf("%d", cnf.RetentionMs),
				},
			},
		},
	}
	if err := kafkautils.InitKafkaTopics(logger, ctx, topicConfig); err != nil {
		return nil, err
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cnf.Brokers,
		"acks":               "all",
		"enable.idempotence": "true",
		"retries":            "1",
	})
	if err != nil {
		return nil, err
	}
	logger.Info("kafka verdict producer created", zap.String("brokers", cnf.Brokers), zap.String("topic", cnf.Topic))
	go handleDeliveryReports(logger, p)
	return &kafkaVerdictPublisher{
		logger:     logger,
		producer:   p,
		topic:      cnf.Topic,
		partitions: uint32(cnf.Partitions),
	}, nil
}

func (k *kafkaVerdictPublisher) PublishVerdict(event views.VerdictEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	// Deterministic partitioning by user id keeps one user's verdicts ordered.
	h := fnv.New32a()
	_, _ = h.Write([]byte(event.UserID))
	partition := int32(h.Sum32() % k.partitions)

	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &k.topic,
			Partition: partition,
		},
		Key:   []byte(event.TransactionID),
		Value: msgBytes,
	}, nil)
}

func (k *kafkaVerdictPublisher) Close() {
	k.producer.Flush(5000)
	k.producer.Close()
}

func handleDeliveryReports(logger *zap.Logger, p *kafka.Producer) {
	for e := range p.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				logger.Error("failed to publish verdict event", zap.Error(ev.TopicPartition.Error))
			}
		}
	}
}

type noopVerdictPublisher struct{}

// NewNoopVerdictPublisher is used when no Kafka brokers are configured.
func NewNoopVerdictPublisher() VerdictPublisher {
	return noopVerdictPublisher{}
}

func (noopVerdictPublisher) PublishVerdict(event views.VerdictEvent) error { return nil }
func (noopVerdictPublisher) Close()                                        {}
