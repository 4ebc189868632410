package domain

import "errors"

var (
	ErrInvalidStore            = errors.New("invalid_store")
	ErrInvalidDate             = errors.New("invalid_date")
	ErrInvalidPeriod           = errors.New("invalid_period")
	ErrSettlementNotFound      = errors.New("settlement_not_found")
	ErrDuplicateSettlement     = errors.New("duplicate_settlement")
	ErrNoEligibleOrders        = errors.New("no_eligible_orders")
	ErrExportFailure           = errors.New("receipt_export_failed")
	ErrReceiptNotFound         = errors.New("receipt_not_found")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrInvalidStatusTransition = errors.New("invalid_status_transition")
	ErrStatusConflict          = errors.New("status_conflict")
)
