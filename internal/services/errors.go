package services

import "errors"

// Business-rule rejections surfaced by the payment services. Handlers map
// these onto HTTP status codes with errors.Is.
var (
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrRequestNotFound    = errors.New("service request not found")
	ErrAlreadyConfirmed   = errors.New("payment is already confirmed")
	ErrPaymentClosed      = errors.New("payment is failed or cancelled and cannot be reopened")
	ErrNotApprovable      = errors.New("payment status does not allow approval")
	ErrNotDeletable       = errors.New("payment status does not allow deletion")
	ErrHashInUse          = errors.New("transaction hash is already attached to another payment")
	ErrDuplicateReference = errors.New("a payment with this reference already exists for the request")
	ErrAmountMismatch     = errors.New("reported amount does not match the expected amount")
	ErrExceedsBalance     = errors.New("amount exceeds the outstanding balance")
	ErrLinkNotActive      = errors.New("no active payment link for this request")
	ErrNoEstimatedCost    = errors.New("service request has no estimated cost")
)
