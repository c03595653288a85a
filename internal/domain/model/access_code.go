package model

import (
	"time"
)

type AccessCodeStatus string

const (
	AccessCodeStatusUnused  AccessCodeStatus = "UNUSED"
	AccessCodeStatusActive  AccessCodeStatus = "ACTIVE"
	AccessCodeStatusExpired AccessCodeStatus = "EXPIRED"
)

// AccessCode is a single-use trial credential. SchoolID is nil until the code
// is redeemed and immutable afterwards.
type AccessCode struct {
	ID          string
	Code        string
	Status      AccessCodeStatus
	SchoolID    *string
	FirstUsedAt *time.Time
	ExpiresAt   *time.Time
	CreatedAt   time.Time
}
