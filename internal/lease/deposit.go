// ABOUTME: Deposit-return arithmetic and validation against the security deposit
// ABOUTME: Pure functions; the engine appends the resulting ledger entries

package lease

// Deduction is one itemized deduction supplied by the landlord at
// deposit-return time.
type Deduction struct {
	Amount      int64
	Description string
	Proof       string
}

// ExpectedReturn is the security deposit minus all deductions.
func ExpectedReturn(securityDeposit int64, deductions []Deduction) int64 {
	total := securityDeposit
	for _, d := range deductions {
		total -= d.Amount
	}
	return total
}

// ValidateReturn checks a deposit-return request: non-negative amounts,
// deductions within the deposit, and the returned amount matching the
// expected return within the configured currency-unit tolerance.
func ValidateReturn(securityDeposit, returnedAmount int64, deductions []Deduction, tolerance int64) error {
	if returnedAmount < 0 {
		return Errf(KindValidation, "returned amount must not be negative")
	}
	var deducted int64
	for _, d := range deductions {
		if d.Amount < 0 {
			return Errf(KindValidation, "deduction amount must not be negative")
		}
		deducted += d.Amount
	}
	if deducted > securityDeposit {
		return Errf(KindValidation, "deductions exceed the security deposit")
	}
	expected := securityDeposit - deducted
	diff := returnedAmount - expected
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerance {
		return ErrAmountMismatch
	}
	return nil
}

// ReturnedStatus is the deposit status after a successful return: returned
// in full, partially returned, or still held when nothing was paid out.
func ReturnedStatus(securityDeposit, returnedAmount int64) DepositStatus {
	switch {
	case returnedAmount == 0:
		return DepositHeld
	case returnedAmount < securityDeposit:
		return DepositPartiallyReturned
	default:
		return DepositReturned
	}
}
