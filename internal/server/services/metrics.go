package services

import (
	"errors"

	"github.com/dmitrijs2005/vidhub/internal/common"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for AccountOperations.
const (
	OutcomeSuccess      = "success"
	OutcomeValidation   = "validation"
	OutcomeUnauthorized = "unauthorized"
	OutcomeNotFound     = "not_found"
	OutcomeConflict     = "conflict"
	OutcomeError        = "error"
)

// AccountOperations counts account operations by operation and outcome.
// Use RegisterMetrics to expose it.
var AccountOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vidhub_account_operations_total",
		Help: "Total number of account operations by operation and outcome",
	},
	[]string{"operation", "outcome"},
)

// RegisterMetrics registers the services metrics with reg. Panics on
// duplicate registration.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AccountOperations)
}

func recordOperation(op string, err error) {
	AccountOperations.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, common.ErrValidation):
		return OutcomeValidation
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return OutcomeUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return OutcomeNotFound
	case errors.Is(err, common.ErrConflict):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}
