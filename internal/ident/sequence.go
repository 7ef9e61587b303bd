package ident

import "fmt"

// PlanSequence is the fixed allocation order for plan letters within a
// specification: uppercase first, then lowercase, then digits.
const PlanSequence = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// EpicSequence is the fixed allocation order for epic chars within a plan:
// digits first, then lowercase, then uppercase.
const EpicSequence = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NextPlanLetter returns the first symbol in PlanSequence not present in
// used. Returns ErrSequenceExhausted once all 62 symbols are taken.
func NextPlanLetter(used []byte) (byte, error) {
	return nextFree(PlanSequence, used, "plan letters")
}

// NextEpicChar returns the first symbol in EpicSequence not present in
// used. Returns ErrSequenceExhausted once all 62 symbols are taken.
func NextEpicChar(used []byte) (byte, error) {
	return nextFree(EpicSequence, used, "epic chars")
}

func nextFree(sequence string, used []byte, what string) (byte, error) {
	taken := make(map[byte]bool, len(used))
	for _, b := range used {
		taken[b] = true
	}
	for i := 0; i < len(sequence); i++ {
		if !taken[sequence[i]] {
			return sequence[i], nil
		}
	}
	return 0, fmt.Errorf("%w: all %d %s are in use", ErrSequenceExhausted, len(sequence), what)
}

func inSequence(sequence string, b byte) bool {
	for i := 0; i < len(sequence); i++ {
		if sequence[i] == b {
			return true
		}
	}
	return false
}
