package domain

import "errors"

var (
	ErrInvalidTaxRate        = errors.New("invalid_tax_rate")
	ErrInvalidCommissionRate = errors.New("invalid_commission_rate")
	ErrNegativeAmount        = errors.New("negative_amount")
	ErrInvalidScale          = errors.New("invalid_scale")
)
