package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the run's outcome to help debug the failure.
type AssertionError struct {
	Type      string   // Assertion type for categorization
	Expected  string   // Human-readable expected outcome
	Actual    string   // Human-readable actual outcome
	Removable []string // Full removable set for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nRemovable:\n")
	for i, ref := range e.Removable {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, ref)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertRemovable:
		return assertRemovable(result, a)
	case AssertRemovableContains:
		return assertRemovableContains(result, a)
	case AssertRemovableCount:
		return assertRemovableCount(result, a)
	case AssertRemaining:
		return assertRemaining(result, a)
	case AssertError:
		return assertError(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// collected fails every removable assertion when collection itself failed.
func collected(result *Result, typ string) error {
	if result.ErrorCode == "" {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: "collection to succeed",
		Actual:   "failed with " + result.ErrorCode,
	}
}

// assertRemovable checks the removable set exactly, including order.
func assertRemovable(result *Result, a Assertion) error {
	if err := collected(result, AssertRemovable); err != nil {
		return err
	}
	want := a.Refs
	if want == nil {
		want = []string{}
	}
	got := result.Removable
	if got == nil {
		got = []string{}
	}
	if !slices.Equal(want, got) {
		return &AssertionError{
			Type:      AssertRemovable,
			Expected:  fmt.Sprintf("%v", want),
			Actual:    fmt.Sprintf("%v", got),
			Removable: result.Removable,
		}
	}
	return nil
}

// assertRemovableContains checks that each listed reference is removable.
func assertRemovableContains(result *Result, a Assertion) error {
	if err := collected(result, AssertRemovableContains); err != nil {
		return err
	}
	for _, ref := range a.Refs {
		if !slices.Contains(result.Removable, ref) {
			return &AssertionError{
				Type:      AssertRemovableContains,
				Expected:  ref + " to be removable",
				Actual:    "not in removable set",
				Removable: result.Removable,
			}
		}
	}
	return nil
}

// assertRemovableCount checks the size of the removable set.
func assertRemovableCount(result *Result, a Assertion) error {
	if err := collected(result, AssertRemovableCount); err != nil {
		return err
	}
	if len(result.Removable) != a.Count {
		return &AssertionError{
			Type:      AssertRemovableCount,
			Expected:  fmt.Sprintf("%d removable references", a.Count),
			Actual:    fmt.Sprintf("%d removable references", len(result.Removable)),
			Removable: result.Removable,
		}
	}
	return nil
}

// assertRemaining checks the directory contents after the run, ignoring order.
func assertRemaining(result *Result, a Assertion) error {
	want := append([]string{}, a.Refs...)
	sort.Strings(want)
	if !slices.Equal(want, result.Remaining) {
		return &AssertionError{
			Type:      AssertRemaining,
			Expected:  fmt.Sprintf("%v", want),
			Actual:    fmt.Sprintf("%v", result.Remaining),
			Removable: result.Removable,
		}
	}
	return nil
}

// assertError checks that collection failed with the given code.
func assertError(result *Result, a Assertion) error {
	if result.ErrorCode != a.Code {
		actual := result.ErrorCode
		if actual == "" {
			actual = "no error"
		}
		return &AssertionError{
			Type:      AssertError,
			Expected:  a.Code,
			Actual:    actual,
			Removable: result.Removable,
		}
	}
	return nil
}
