package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"shg-finance/internal/config"
	"shg-finance/internal/core/domain"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishLoanEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &LoanEventProducer{writer: w, topic: "loans"}
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	err := p.PublishLoanEvent(context.Background(), domain.LoanEvent{
		LoanID:      42,
		GroupID:     1,
		MemberID:    7,
		Action:      domain.ActionDisburse,
		FromStatus:  domain.LoanApproved,
		ToStatus:    domain.LoanDisbursed,
		Amount:      decimal.NewFromInt(25000),
		PerformedBy: 3,
		OccurredAt:  at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "loan-42", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	assert.Equal(t, "DISBURSE", string(msg.Headers[0].Value))

	var decoded domain.LoanEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, domain.LoanDisbursed, decoded.ToStatus)
	assert.True(t, decoded.Amount.Equal(decimal.NewFromInt(25000)))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishLoanEvent_WriterError(t *testing.T) {
	p := &LoanEventProducer{writer: &fakeWriter{err: errors.New("broker down")}}
	assert.Error(t, p.PublishLoanEvent(context.Background(), domain.LoanEvent{LoanID: 1}))
}

func TestNewLoanEventProducer_Disabled(t *testing.T) {
	p := NewLoanEventProducer(config.KafkaConfig{})
	assert.Nil(t, p)
	assert.NoError(t, p.PublishLoanEvent(context.Background(), domain.LoanEvent{LoanID: 1}))
	assert.NoError(t, p.Close())
}
