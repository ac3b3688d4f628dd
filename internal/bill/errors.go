package bill

import "errors"

var (
	// ErrInvalidRecord indicates a record that fails structural validation.
	ErrInvalidRecord = errors.New("invalid bill record")
	// ErrReferentialIntegrity indicates a relatedProvisions or relatedImpacts
	// reference that does not resolve within the same record.
	ErrReferentialIntegrity = errors.New("referential integrity violation")
)
