package apierror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/clipstream-go/clipstream/pkg/core"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantType   core.ErrorType
		wantStatus int
	}{
		{
			name:       "nil",
			err:        nil,
			wantStatus: http.StatusOK,
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantType:   core.ErrAPI,
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "canonical not found",
			err:        core.NewNotFoundError("video not found"),
			wantType:   core.ErrNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "wrapped canonical",
			err:        fmt.Errorf("handler: %w", core.NewInvalidRequestError("bad id")),
			wantType:   core.ErrInvalidRequest,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "permission",
			err:        core.NewPermissionError("denied"),
			wantType:   core.ErrPermission,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "connection",
			err:        core.NewConnectionError("backend down", nil),
			wantType:   core.ErrConnection,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "unknown is opaque",
			err:        errors.New("sql: secret details"),
			wantType:   core.ErrAPI,
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, status := FromError(tt.err, "req_123")
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if tt.err == nil {
				if got != nil {
					t.Errorf("error = %+v, want nil", got)
				}
				return
			}
			if got.Type != tt.wantType {
				t.Errorf("type = %s, want %s", got.Type, tt.wantType)
			}
			if got.RequestID != "req_123" {
				t.Errorf("request id = %q, want req_123", got.RequestID)
			}
		})
	}
}

func TestFromErrorDoesNotLeakInternals(t *testing.T) {
	got, _ := FromError(errors.New("connection string user=admin"), "")
	if got.Message != "internal error" {
		t.Errorf("message = %q, want opaque internal error", got.Message)
	}
}
