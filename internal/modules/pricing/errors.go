package pricing

import "errors"

var (
	ErrConfigNotFound = errors.New("rate table not configured")
	ErrUnknownType    = errors.New("unknown vehicle or service type")
	ErrUnknownZone    = errors.New("unknown zone")
	ErrInvalidRequest = errors.New("invalid price request")
	ErrInvalidConfig  = errors.New("invalid pricing configuration")
	ErrNotFound       = errors.New("pricing entity not found")
)
