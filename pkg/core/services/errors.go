package services

import (
	"errors"

	"go.uber.org/zap"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

// isRejection reports whether err is an expected domain outcome rather than a store failure
func isRejection(err error) bool {
	return model.IsValidation(err) ||
		errors.Is(err, model.ErrUnauthorized) ||
		errors.Is(err, model.ErrSlotUnavailable) ||
		errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrInvalidTransition) ||
		errors.Is(err, model.ErrOperationFailed)
}

// failure logs err at the level its class deserves and returns what the caller sees.
// Rejections pass through unchanged; anything else becomes model.ErrOperationFailed.
func failure(logger *zap.Logger, op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.Error(err))
	switch {
	case errors.Is(err, model.ErrOperationFailed):
		logger.Error("Operation failed", append(fields, zap.String("operation", op))...)
		return err
	case isRejection(err):
		logger.Warn("Operation rejected", append(fields, zap.String("operation", op))...)
		return err
	default:
		logger.Error("Operation failed", append(fields, zap.String("operation", op))...)
		return model.OperationFailed(op, err)
	}
}
