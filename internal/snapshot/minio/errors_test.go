package minio

import (
	"context"
	"errors"
	"net/http"
	"testing"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orakit-io/orakit/internal/errs"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.Category
	}{
		{"nil passthrough", nil, errs.Unknown},
		{"deadline", context.DeadlineExceeded, errs.Connection},
		{"bad credentials", miniogo.ErrorResponse{Code: "InvalidAccessKeyId"}, errs.Authentication},
		{"signature mismatch", miniogo.ErrorResponse{Code: "SignatureDoesNotMatch"}, errs.Authentication},
		{"access denied", miniogo.ErrorResponse{Code: "AccessDenied"}, errs.Permission},
		{"missing bucket", miniogo.ErrorResponse{Code: "NoSuchBucket"}, errs.Data},
		{"bad object name", miniogo.ErrorResponse{Code: "InvalidObjectName"}, errs.Data},
		{"throttled", miniogo.ErrorResponse{Code: "SlowDown"}, errs.Resource},
		{"forbidden status", miniogo.ErrorResponse{StatusCode: http.StatusForbidden}, errs.Permission},
		{"not found status", miniogo.ErrorResponse{StatusCode: http.StatusNotFound}, errs.Data},
		{"plain network error", errors.New("dial tcp: connection refused"), errs.Connection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "store snapshot")
			if tt.err == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Category)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
