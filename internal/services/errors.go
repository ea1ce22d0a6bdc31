package services

import "errors"

// Dashboard service errors
var (
	ErrDatasetNotLoaded  = errors.New("dashboard data is not loaded")
	ErrItemNotFound      = errors.New("item not found")
	ErrNoPriceData       = errors.New("item has no price data")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
