package stream

import "paystream/internal/fixedpoint"

// StreamedAmount returns the cumulative entitlement unlocked at the
// given time, independent of withdrawals. It is zero before the cliff,
// exactly the deposit from the stop time on, and a floor-rounded linear
// fraction of the deposit in between, so it never reports more than the
// sender authorized at that instant.
func StreamedAmount(s *Stream, now int64) int64 {
	if s == nil {
		return 0
	}
	if now < s.CliffTime {
		return 0
	}
	if now >= s.StopTime {
		return s.Deposit
	}

	elapsed := now - s.StartTime
	total := s.StopTime - s.StartTime

	// Both divisions floor. The operands are non-negative and total is
	// positive for any record that passed NewStream validation, so the
	// fixed-point calls cannot fail; zero is the safe fallback either way.
	fraction, err := fixedpoint.DivFloor(elapsed, total, fixedpoint.Scale)
	if err != nil {
		return 0
	}
	streamed, err := fixedpoint.MulFloor(s.Deposit, fraction, fixedpoint.Scale)
	if err != nil {
		return 0
	}

	if streamed > s.Deposit {
		return s.Deposit
	}
	return streamed
}
