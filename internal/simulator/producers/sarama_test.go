package producers

import (
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaramaProducerPrefixesTopics(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"tick":3}` {
			return errors.New("unexpected payload")
		}
		return nil
	})

	producer := NewSaramaProducerFromSync(mock, "sim")
	assert.Equal(t, "sim.order_events", producer.Topic("order_events"))
	require.NoError(t, producer.WriteMessage("order_events", []byte(`{"tick":3}`)))
	require.NoError(t, producer.Close())
}

func TestSaramaProducerReportsFailures(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := NewSaramaProducerFromSync(mock, "")
	assert.Equal(t, "vehicle_events", producer.Topic("vehicle_events"))
	assert.ErrorIs(t, producer.WriteMessage("vehicle_events", []byte("{}")), sarama.ErrOutOfBrokers)
	require.NoError(t, producer.Close())

	assert.Error(t, (&SaramaProducer{}).WriteMessage("x", nil))
}
