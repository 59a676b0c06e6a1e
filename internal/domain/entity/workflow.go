package entity

type SaleState string

const (
	SaleStateOpen             SaleState = "OPEN"
	SaleStatePaymentRequested SaleState = "PAYMENT_REQUESTED"
	SaleStateSold             SaleState = "SOLD"
)

// WorkflowView is what a participant may do next in a conversation.
type WorkflowView struct {
	State             SaleState `json:"state"`
	Role              Role      `json:"role"`
	CanConfirmSale    bool      `json:"can_confirm_sale"`
	CanRequestPayment bool      `json:"can_request_payment"`
	CanPay            bool      `json:"can_pay"`
	CanReview         bool      `json:"can_review"`
	ReviewExists      bool      `json:"review_exists"`
}
