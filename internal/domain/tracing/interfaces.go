// tracing abstracts over whatever tracing backend is in use, for work that happens outside
// of an HTTP request (those are traced by middleware)
package tracing

import "context"

type Transaction interface {
	// Context carries the transaction, so that spans started by clients (e.g. Elasticsearch
	// calls) are attached to it
	Context() context.Context
	// Fail records err against the transaction and marks its outcome as failed
	Fail(err error)
	End()
}

type Tracer interface {
	BackgroundTx(name string) Transaction
}

// Traced runs f inside a background transaction named name, ending it afterwards
func Traced(tracer Tracer, name string, f func(ctx context.Context) error) error {
	tx := tracer.BackgroundTx(name)
	defer tx.End()
	if err := f(tx.Context()); err != nil {
		tx.Fail(err)
		return err
	}
	return nil
}
