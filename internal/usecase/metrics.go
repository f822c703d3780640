package usecase

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Lifecycle operation labels.
const (
	opRegister       = "register"
	opVerify         = "verify"
	opLogin          = "login"
	opLogout         = "logout"
	opForgotPassword = "forgot_password"
	opResetPassword  = "reset_password"
	opDelete         = "delete"
)

// LifecycleMetrics counts lifecycle operations by outcome.
type LifecycleMetrics struct {
	Operations *prometheus.CounterVec
}

// NewLifecycleMetrics registers the lifecycle counter with reg, reusing an
// existing collector when one is already registered.
func NewLifecycleMetrics(reg prometheus.Registerer) (*LifecycleMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finapp",
		Subsystem: "account",
		Name:      "lifecycle_total",
		Help:      "Account lifecycle operations partitioned by operation and outcome.",
	}, []string{"operation", "outcome"})

	if err := reg.Register(ops); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, fmt.Errorf("register lifecycle collector: %w", err)
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("existing lifecycle collector has unexpected type %T", already.ExistingCollector)
		}
		ops = existing
	}

	return &LifecycleMetrics{Operations: ops}, nil
}

func (m *LifecycleMetrics) observe(operation string, err error) {
	if m == nil || m.Operations == nil {
		return
	}
	m.Operations.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, ErrDuplicateAccount), errors.Is(err, ErrAlreadyVerified):
		return "duplicate"
	case errors.Is(err, ErrWeakPassword):
		return "weak_password"
	case errors.Is(err, ErrInvalidOrExpiredToken):
		return "invalid_token"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, ErrInactiveAccount):
		return "inactive"
	case errors.Is(err, ErrNoActiveSession), errors.Is(err, ErrInvalidSession):
		return "invalid_session"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrDeletionRejected):
		return "rejected"
	default:
		return "error"
	}
}
