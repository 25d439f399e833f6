package scpfwk

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatusValuesStable(t *testing.T) {
	// The integer values are part of the module contract.
	testcases := []struct {
		status Status
		value  int
	}{
		{StatusSuccess, 0},
		{StatusPending, 1},
		{StatusParam, 2},
		{StatusAccess, 3},
		{StatusState, 4},
		{StatusNoMem, 5},
		{StatusBusy, 6},
		{StatusTimeout, 7},
		{StatusSupport, 8},
		{StatusDevice, 9},
		{StatusPanic, 10},
	}
	for _, tc := range testcases {
		if int(tc.status) != tc.value {
			t.Errorf("%s = %d, want %d", tc.status, int(tc.status), tc.value)
		}
	}
}

func TestStatusAsError(t *testing.T) {
	wrapped := fmt.Errorf("binding failed: %w", StatusAccess)
	if !errors.Is(wrapped, StatusAccess) {
		t.Error("wrapped status must match with errors.Is")
	}
	if errors.Is(wrapped, StatusParam) {
		t.Error("wrapped status must not match a different status")
	}
}

func TestAsStatus(t *testing.T) {
	testcases := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, StatusSuccess},
		{"bare status", StatusBusy, StatusBusy},
		{"wrapped status", fmt.Errorf("queue: %w", StatusNoMem), StatusNoMem},
		{"foreign error", errors.New("i2c bus stuck"), StatusDevice},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AsStatus(tc.err); got != tc.want {
				t.Errorf("AsStatus = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStatusErrOf(t *testing.T) {
	if StatusSuccess.errOf() != nil {
		t.Error("success must map to nil")
	}
	if !errors.Is(StatusTimeout.errOf(), StatusTimeout) {
		t.Error("non-success must map to itself")
	}
}
