package producers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "kafka-producer")

type SaramaProducer struct {
	producer    sarama.SyncProducer
	topicPrefix string
}

func NewSaramaProducer(config *models.Config) (*SaramaProducer, error) {
	timeout := config.KafkaTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // required by SyncProducer
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	saramaConfig.Net.DialTimeout = timeout
	saramaConfig.Net.ReadTimeout = timeout
	saramaConfig.Net.WriteTimeout = timeout

	brokerList := strings.Split(config.KafkaBrokerList, ",")

	producer, err := sarama.NewSyncProducer(brokerList, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	log.WithField("brokers", brokerList).Info("sarama producer created")
	return NewSaramaProducerFromSync(producer, config.KafkaTopicPrefix), nil
}

// NewSaramaProducerFromSync wraps an existing producer. Topics are
// published as <prefix>.<topic> when prefix is set.
func NewSaramaProducerFromSync(producer sarama.SyncProducer, topicPrefix string) *SaramaProducer {
	return &SaramaProducer{producer: producer, topicPrefix: topicPrefix}
}

func (s *SaramaProducer) Topic(topic string) string {
	if s.topicPrefix == "" {
		return topic
	}
	return s.topicPrefix + "." + topic
}

func (s *SaramaProducer) WriteMessage(topic string, msg []byte) error {
	if s.producer == nil {
		return errors.New("sarama producer is not initialized")
	}

	_, _, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.Topic(topic),
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		log.WithField("topic", s.Topic(topic)).WithError(err).Error("failed to send message")
		return err
	}

	return nil
}

func (s *SaramaProducer) Close() error {
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}
