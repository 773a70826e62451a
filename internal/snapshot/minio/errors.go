package minio

import (
	"context"
	"errors"
	"net/http"

	miniogo "github.com/minio/minio-go/v7"

	"github.com/orakit-io/orakit/internal/errs"
)

// mapError translates a MinIO SDK error into a *errs.Error, the same
// boundary translation the oracle driver applies to ORA codes.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.Connection, msg, err)
	}

	var resp miniogo.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errs.Wrap(errs.Authentication, msg, err)
		case "AccessDenied":
			return errs.Wrap(errs.Permission, msg, err)
		case "NoSuchBucket", "NoSuchKey":
			return errs.Wrap(errs.Data, msg, err)
		case "InvalidBucketName", "InvalidObjectName", "KeyTooLongError":
			return errs.Wrap(errs.Data, msg, err)
		case "RequestTimeout", "SlowDown":
			return errs.Wrap(errs.Resource, msg, err)
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errs.Wrap(errs.Authentication, msg, err)
		case http.StatusForbidden:
			return errs.Wrap(errs.Permission, msg, err)
		case http.StatusNotFound:
			return errs.Wrap(errs.Data, msg, err)
		}
	}

	return errs.Wrap(errs.Connection, msg, err)
}
