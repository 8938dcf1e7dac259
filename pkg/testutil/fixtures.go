package testutil

import (
	"time"

	"github.com/google/uuid"
)

// Fixed values for deterministic testing.
var (
	OwnerID1 = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	OwnerID2 = uuid.MustParse("00000000-0000-0000-0000-000000000002")

	// LoanStart is a mid-month date so month arithmetic never overflows.
	LoanStart = time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
)
