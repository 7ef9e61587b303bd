package ident

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Parsed is the decomposed form of an identifier string. Plan and Epic are
// zero when the corresponding level is absent. Nums holds the dot-separated
// numeric suffixes, outermost first; it has at most two entries.
type Parsed struct {
	Spec       SpecID
	Standalone bool
	Plan       byte
	Epic       byte
	Nums       []int
}

// SpecString returns the formatted specification prefix of the parsed ID.
func (p Parsed) SpecString() string {
	if p.Standalone {
		return StandaloneID{Project: p.Spec.Project, Number: p.Spec.Number}.String()
	}
	return p.Spec.String()
}

var (
	standalonePattern = regexp.MustCompile(`^(.+)-s(\d{3,})$`)
	specPattern       = regexp.MustCompile(`^(.+)-(\d{3,})$`)
)

// Parse decomposes an identifier string into its specification prefix and
// numeric suffixes. The numeric suffix count is 0 for a specification, plan,
// or epic; 1 for a task; 2 for a subtask. More than two numeric levels, a
// malformed prefix, or an out-of-sequence plan/epic symbol is rejected with
// ErrInvalidArgument.
func Parse(s string) (Parsed, error) {
	if s == "" {
		return Parsed{}, fmt.Errorf("%w: empty identifier", ErrInvalidArgument)
	}

	head, nums, err := splitNumericSuffixes(s)
	if err != nil {
		return Parsed{}, err
	}

	// Standalone tasks sit outside the hierarchy and take no suffixes.
	if m := standalonePattern.FindStringSubmatch(head); m != nil {
		if len(nums) > 0 {
			return Parsed{}, fmt.Errorf("%w: standalone task %q cannot have numeric children", ErrInvalidArgument, head)
		}
		n, _ := strconv.Atoi(m[2])
		return Parsed{
			Spec:       SpecID{Project: m[1], Number: n},
			Standalone: true,
		}, nil
	}

	p := Parsed{Nums: nums}

	// An epic suffix is a single "-<char>" after a plan prefix.
	if len(head) > 2 && head[len(head)-2] == '-' && isAlnum(head[len(head)-1]) {
		rest := head[:len(head)-2]
		spec, plan, ok := parseSpecPlan(rest, true)
		if ok {
			if plan == 0 {
				return Parsed{}, fmt.Errorf("%w: epic %q requires a plan prefix", ErrInvalidArgument, head)
			}
			ec := head[len(head)-1]
			if !inSequence(EpicSequence, ec) {
				return Parsed{}, fmt.Errorf("%w: epic char %q out of sequence", ErrInvalidArgument, string(ec))
			}
			p.Spec, p.Plan, p.Epic = spec, plan, ec
			return p, p.validateDepth()
		}
	}

	spec, plan, ok := parseSpecPlan(head, len(nums) > 0)
	if !ok {
		return Parsed{}, fmt.Errorf("%w: malformed specification prefix in %q", ErrInvalidArgument, s)
	}
	p.Spec, p.Plan = spec, plan
	return p, p.validateDepth()
}

// validateDepth rejects numeric suffixes hanging off a bare specification
// beyond the allowed two levels. Depth itself is already capped by
// splitNumericSuffixes; this catches tasks numbered zero.
func (p Parsed) validateDepth() error {
	for _, n := range p.Nums {
		if n < 1 {
			return fmt.Errorf("%w: task numbers start at 1, got %d", ErrInvalidArgument, n)
		}
	}
	return nil
}

// Parent returns the immediate parent identifier string: a subtask's task,
// a task's epic (or plan), an epic's plan, a plan's spec. Specifications and
// standalone tasks have no parent and yield "".
func Parent(s string) (string, error) {
	p, err := Parse(s)
	if err != nil {
		return "", err
	}
	switch {
	case len(p.Nums) > 0:
		return s[:strings.LastIndex(s, ".")], nil
	case p.Epic != 0:
		return s[:len(s)-2], nil
	case p.Plan != 0:
		return s[:len(s)-1], nil
	default:
		return "", nil
	}
}

// splitNumericSuffixes peels dot-separated integers off the end of s,
// allowing at most two.
func splitNumericSuffixes(s string) (string, []int, error) {
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return "", nil, fmt.Errorf("%w: %q has more than two numeric levels", ErrInvalidArgument, s)
	}
	var nums []int
	for _, part := range parts[1:] {
		n, err := strconv.Atoi(part)
		if err != nil {
			return "", nil, fmt.Errorf("%w: non-numeric suffix %q in %q", ErrInvalidArgument, part, s)
		}
		nums = append(nums, n)
	}
	return parts[0], nums, nil
}

// parseSpecPlan splits a prefix like "cub-054" or "cub-054A" into its spec
// and optional plan letter. A trailing digit is normally part of the spec
// number; it is read as a digit plan letter only when deeper structure
// follows (hasChildren) and at least three digits remain for the number.
func parseSpecPlan(h string, hasChildren bool) (SpecID, byte, bool) {
	if h == "" {
		return SpecID{}, 0, false
	}
	if m := specPattern.FindStringSubmatch(h); m != nil {
		digits := m[2]
		if hasChildren && len(digits) > 3 {
			// "cub-0540-1.2" reads as plan '0' of spec 054, not spec 540.
			n, _ := strconv.Atoi(digits[:len(digits)-1])
			return SpecID{Project: m[1], Number: n}, digits[len(digits)-1], true
		}
		n, _ := strconv.Atoi(digits)
		return SpecID{Project: m[1], Number: n}, 0, true
	}

	// Trailing plan letter after the digit run.
	last := h[len(h)-1]
	if !isAlnum(last) || (last >= '0' && last <= '9') {
		return SpecID{}, 0, false
	}
	m := specPattern.FindStringSubmatch(h[:len(h)-1])
	if m == nil {
		return SpecID{}, 0, false
	}
	if !inSequence(PlanSequence, last) {
		return SpecID{}, 0, false
	}
	n, _ := strconv.Atoi(m[2])
	return SpecID{Project: m[1], Number: n}, last, true
}

func isAlnum(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
