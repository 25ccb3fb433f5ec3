package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.elastic.co/apm"
	"go.elastic.co/apm/apmtest"

	"github.com/openappconfig/openappconfig/internal/domain/tracing"
)

func recordingTracer(t *testing.T) (*apmtest.RecordingTracer, tracing.Tracer) {
	recorder := apmtest.NewRecordingTracer()
	t.Cleanup(recorder.Close)
	return recorder, &tracerImpl{getApmTracer: func() *apm.Tracer {
		return recorder.Tracer
	}}
}

func Test_Traced_Success(t *testing.T) {
	recorder, tracer := recordingTracer(t)
	err := tracing.Traced(tracer, "storage-setup", func(ctx context.Context) error {
		assert.NotNil(t, apm.TransactionFromContext(ctx))
		return nil
	})
	assert.NoError(t, err)

	recorder.Flush(nil)
	payloads := recorder.Payloads()
	if assert.Len(t, payloads.Transactions, 1) {
		assert.EqualValues(t, "storage-setup", payloads.Transactions[0].Name)
		assert.EqualValues(t, backgroundTxType, payloads.Transactions[0].Type)
		assert.EqualValues(t, successResult, payloads.Transactions[0].Result)
	}
	assert.Empty(t, payloads.Errors)
}

func Test_Traced_Failure(t *testing.T) {
	recorder, tracer := recordingTracer(t)
	boom := errors.New("boom")
	err := tracing.Traced(tracer, "storage-setup", func(ctx context.Context) error {
		return boom
	})
	assert.Equal(t, boom, err)

	recorder.Flush(nil)
	payloads := recorder.Payloads()
	if assert.Len(t, payloads.Transactions, 1) {
		assert.EqualValues(t, failureResult, payloads.Transactions[0].Result)
	}
	assert.Len(t, payloads.Errors, 1)
}

func Test_NoopTracer(t *testing.T) {
	called := false
	err := tracing.Traced(NoopTracer{}, "anything", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}
