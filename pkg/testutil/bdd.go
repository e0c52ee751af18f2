package testutil

import "testing"

// Given, When and Then name subtests after the step they exercise so a
// failing flow reads as a scenario. Steps share state through the enclosing
// test's variables and run in order.
func Given(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run("When "+desc, fn)
}

// Then stops the scenario when an earlier step failed, since later steps
// depend on its state.
func Then(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	if t.Failed() {
		t.Skipf("skipping %q: an earlier step failed", desc)
	}
	return t.Run("Then "+desc, fn)
}
