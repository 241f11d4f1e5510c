package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Field     string `json:"field,omitempty"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

var kindStatus = map[model.ErrorKind]int{
	model.KindInvalidInput:             http.StatusBadRequest,
	model.KindUnknownMethod:            http.StatusBadRequest,
	model.KindInvalidInstallmentCount:  http.StatusBadRequest,
	model.KindTiersNotConfigured:       http.StatusUnprocessableEntity,
	model.KindObligationNotFound:       http.StatusNotFound,
	model.KindObligationAlreadySettled: http.StatusConflict,
	model.KindObligationCanceled:       http.StatusConflict,
	model.KindOverpaymentRejected:      http.StatusConflict,
	model.KindConcurrentModification:   http.StatusConflict,
	model.KindStorageFailure:           http.StatusServiceUnavailable,
}

// MapError translates engine errors first, then raw database errors.
func MapError(err error) (int, ErrorResponse) {
	var typed *model.Error
	if errors.As(err, &typed) {
		if typed.Kind == model.KindStorageFailure {
			status, resp := MapDBError(typed.Err)
			if status != http.StatusInternalServerError {
				return status, resp
			}
			log.Error().Err(err).Msg("storage failure")
			return http.StatusServiceUnavailable, ErrorResponse{
				Error:     "storage temporarily unavailable",
				Kind:      string(typed.Kind),
				Retryable: true,
			}
		}

		status, ok := kindStatus[typed.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		return status, ErrorResponse{
			Error:     typed.Message,
			Kind:      string(typed.Kind),
			Field:     typed.Field,
			Retryable: typed.Retryable(),
		}
	}
	return MapDBError(err)
}

func MapDBError(err error) (int, ErrorResponse) {
	if errors.Is(err, pgx.ErrNoRows) {
		return http.StatusNotFound, ErrorResponse{Error: "resource not found"}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return http.StatusConflict, ErrorResponse{
				Error:   "resource already exists",
				Details: pgErr.Detail,
			}
		case "23503": // foreign_key_violation
			return http.StatusBadRequest, ErrorResponse{
				Error:   "referenced resource does not exist",
				Details: pgErr.Detail,
			}
		case "23514": // check_violation
			return http.StatusBadRequest, ErrorResponse{
				Error:   "constraint violation",
				Details: pgErr.ConstraintName,
			}
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return http.StatusConflict, ErrorResponse{
				Error:     "concurrent update, retry the request",
				Kind:      string(model.KindConcurrentModification),
				Retryable: true,
			}
		}
	}

	log.Error().Err(err).Msg("unhandled error")
	return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
}

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			status, resp := MapError(err)
			c.JSON(status, resp)
		}
	}
}
