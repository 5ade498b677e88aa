package txn

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported_CommandCodes(t *testing.T) {
	// 20 and 51 are IllegalOperation variants, 263 is
	// OperationNotSupportedInTransaction.
	for _, code := range []int32{20, 51, 263} {
		err := mongo.CommandError{Code: code, Message: "no transactions here"}
		if !IsNotSupported(err) {
			t.Errorf("code %d: want not-supported", code)
		}
	}
	if IsNotSupported(mongo.CommandError{Code: 11000, Message: "duplicate key"}) {
		t.Error("duplicate-key command error misread as not-supported")
	}
}

func TestIsNotSupported_WrappedCommandError(t *testing.T) {
	inner := mongo.CommandError{Code: 20, Message: "IllegalOperation"}
	wrapped := fmt.Errorf("create activity: %w", inner)
	if !IsNotSupported(wrapped) {
		t.Error("errors.As should see through the wrap")
	}
}

func TestIsNotSupported_MessageHeuristics(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"", false},
		{"some random error", false},
		{"Transaction numbers are only allowed on a replica set member", true},
		{"cannot start transaction in current session state", true},
		{"illegal operation during transaction", true},
		{"session operations are not supported on this server", true},
		{"TRANSACTION FAILED on REPLICA SET", true},
		{"transaction failed", false},
		{"replica set member is syncing", false},
	}
	for _, tt := range tests {
		var err error
		if tt.msg != "" {
			err = errors.New(tt.msg)
		}
		if got := IsNotSupported(err); got != tt.want {
			t.Errorf("IsNotSupported(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}
