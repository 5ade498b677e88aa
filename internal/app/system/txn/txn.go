// Package txn provides the unit-of-work helper for multi-document writes.
//
// Operations that must commit together, such as approving a join request
// and creating the membership in one step, run inside WithTxn. On a
// replica set this is a real multi-document transaction. On a standalone
// server (local development, CI) transactions are unsupported; WithTxn
// detects that and falls back to running the function without one, since
// the unique indexes still guard every invariant that matters there.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTxn runs fn inside a MongoDB transaction when the server supports
// them. fn receives the session context and must pass it to every store
// call so the writes join the transaction. Any error from fn aborts the
// transaction and is returned unchanged.
func WithTxn(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions (standalone mongod, old server version).
// Checks the known command error codes first, then falls back to
// keyword matching since drivers and proxies word this differently.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		// 20 IllegalOperation (txn numbers need a replica set member),
		// 51 also IllegalOperation in older servers, 263 OperationNotSupportedInTransaction
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	hasTxn := strings.Contains(msg, "transaction")
	switch {
	case hasTxn && strings.Contains(msg, "replica set"):
		return true
	case hasTxn && strings.Contains(msg, "session"):
		return true
	case hasTxn && strings.Contains(msg, "illegal operation"):
		return true
	case strings.Contains(msg, "session") && strings.Contains(msg, "not supported"):
		return true
	}
	return false
}
