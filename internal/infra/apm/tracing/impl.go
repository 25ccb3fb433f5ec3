package tracing

import (
	"context"

	"go.elastic.co/apm"

	"github.com/openappconfig/openappconfig/internal/domain/tracing"
)

const (
	backgroundTxType = "backgroundjob"
	successResult    = "success"
	failureResult    = "failure"
)

// NewTracer returns a thin wrapper around the global APM tracer, looked up on every
// transaction since it is swapped out once config is loaded
func NewTracer() tracing.Tracer {
	return &tracerImpl{getApmTracer: func() *apm.Tracer {
		return apm.DefaultTracer
	}}
}

type transactionImpl struct {
	apmTx *apm.Transaction
	ctx   context.Context
}

func (t *transactionImpl) Context() context.Context {
	return t.ctx
}

func (t *transactionImpl) Fail(err error) {
	t.apmTx.Result = failureResult
	if e := apm.CaptureError(t.ctx, err); e != nil {
		e.Send()
	}
}

func (t *transactionImpl) End() {
	if len(t.apmTx.Result) == 0 {
		t.apmTx.Result = successResult
	}
	t.apmTx.End()
}

type tracerImpl struct {
	getApmTracer func() *apm.Tracer
}

func (t *tracerImpl) BackgroundTx(name string) tracing.Transaction {
	tx := t.getApmTracer().StartTransaction(name, backgroundTxType)
	return &transactionImpl{
		apmTx: tx,
		ctx:   apm.ContextWithTransaction(context.Background(), tx),
	}
}

// <--- For testing

type noopTx struct{}

func (n noopTx) Context() context.Context {
	return context.Background()
}

func (n noopTx) Fail(err error) {
}

func (n noopTx) End() {
}

type NoopTracer struct{}

func (n NoopTracer) BackgroundTx(name string) tracing.Transaction {
	return noopTx{}
}

// For testing -->
