package finance

import (
	"github.com/shopspring/decimal"

	"github.com/ipagency/backend/internal/domain/shared"
)

// PaymentRequest is an outstanding request for payment, owned by the intake
// workflow. This subsystem consumes it read-only: a write-off may reference a
// request, and only the reference's existence is validated. Whether the
// request is still outstanding is deliberately not checked.
type PaymentRequest struct {
	shared.BaseEntity
	RequestNo string          `json:"request_no"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
}
