package service

import (
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/racha/internal/auth"
	"github.com/mmynk/racha/internal/ledger"
)

func TestConnectError(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{ledger.ErrTableNotFound, connect.CodeNotFound},
		{fmt.Errorf("%w: e1", ledger.ErrExpenseNotFound), connect.CodeNotFound},
		{ledger.ErrCodeCollision, connect.CodeAborted},
		{auth.ErrBarExists, connect.CodeAlreadyExists},
		{ledger.ErrInvalidInput, connect.CodeInvalidArgument},
		{ledger.ErrUnauthorized, connect.CodePermissionDenied},
		{fmt.Errorf("%w: disk full", ledger.ErrStorage), connect.CodeUnavailable},
		{errors.New("boom"), connect.CodeInternal},
		{connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken), connect.CodeUnauthenticated},
	}
	for _, tt := range tests {
		if got := connectError(tt.err).Code(); got != tt.want {
			t.Errorf("connectError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
