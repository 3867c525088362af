package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-parlay/internal/models"
)

// MockWriter is a mock implementation of messageWriter
type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPublishBundleStatus(t *testing.T) {
	ev := models.BundleStatusEvent{
		BundleID:   uuid.New(),
		OldStatus:  models.StatusLive,
		NewStatus:  models.StatusWon,
		OccurredAt: time.Date(2024, 11, 3, 23, 30, 0, 0, time.UTC),
	}

	var sent []kafka.Message
	w := new(MockWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).([]kafka.Message) }).
		Return(nil)

	p := newKafkaPublisher(w, "bundle-status", quietLogger())
	require.NoError(t, p.PublishBundleStatus(context.Background(), ev))

	require.Len(t, sent, 1)
	assert.Equal(t, ev.BundleID.String(), string(sent[0].Key))
	assert.Equal(t, ev.OccurredAt, sent[0].Time)

	var decoded models.BundleStatusEvent
	require.NoError(t, json.Unmarshal(sent[0].Value, &decoded))
	assert.Equal(t, ev, decoded)
}

func TestPublishBundleStatusError(t *testing.T) {
	w := new(MockWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("leader not available"))

	p := newKafkaPublisher(w, "bundle-status", quietLogger())
	err := p.PublishBundleStatus(context.Background(), models.BundleStatusEvent{BundleID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestNewKafkaPublisherValidation(t *testing.T) {
	_, err := NewKafkaPublisher(KafkaConfig{Topic: "bundle-status"}, quietLogger())
	assert.Error(t, err)

	_, err = NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}}, quietLogger())
	assert.Error(t, err)

	p, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "bundle-status"}, quietLogger())
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Snappy, parseCompression("snappy"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Gzip, parseCompression(""))
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(quietLogger())
	assert.NoError(t, p.PublishBundleStatus(context.Background(), models.BundleStatusEvent{BundleID: uuid.New()}))
	assert.NoError(t, p.Close())
}
