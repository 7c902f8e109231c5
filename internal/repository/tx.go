package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// TxRunner runs multi-document sequences.  With transactions enabled every
// step shares one session transaction and a failure rolls back all of them;
// this requires a replica set.  Without, steps run one after another and a
// mid-sequence failure leaves earlier writes in place.
type TxRunner struct {
	client  *mongo.Client
	enabled bool
}

// NewTxRunner returns a runner bound to client.
func NewTxRunner(client *mongo.Client, enabled bool) *TxRunner {
	return &TxRunner{client: client, enabled: enabled}
}

// InTx runs fn, inside a transaction when enabled.  fn must use the ctx it
// is handed so its operations join the session.
func (t *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled || t.client == nil {
		return fn(ctx)
	}
	sess, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sctx context.Context) (interface{}, error) {
		return nil, fn(sctx)
	})
	return err
}
