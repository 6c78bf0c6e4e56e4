package app

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestOperationError(t *testing.T) {
	tests := []struct {
		name string
		err  *OperationError
		want string
	}{
		{"with target", NewOperationError("save state", "w1", os.ErrPermission), "save state w1: permission denied"},
		{"no target", NewOperationError("resolve", "", os.ErrNotExist), "resolve: file does not exist"},
		{"no cause", NewOperationError("reload", "w2", nil), "reload w2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	if !errors.Is(NewOperationError("save state", "w1", os.ErrPermission), os.ErrPermission) {
		t.Error("OperationError does not unwrap its cause")
	}
}

func TestErrorList(t *testing.T) {
	var list ErrorList
	list.Add(nil)
	if list.AsError() != nil || list.Len() != 0 {
		t.Fatal("empty list reported an error")
	}

	list.Add(ErrClosed)
	if got := list.AsError().Error(); got != ErrClosed.Error() {
		t.Errorf("single error = %q", got)
	}

	list.Add(NewOperationError("save state", "w1", os.ErrPermission))
	err := list.AsError()
	if list.Len() != 2 || len(list.Errors()) != 2 {
		t.Fatalf("Len() = %d", list.Len())
	}
	if !strings.HasPrefix(err.Error(), "2 errors") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrClosed) || !errors.Is(err, os.ErrPermission) {
		t.Error("ErrorList does not unwrap its members")
	}
}

func TestRecoveredPanicError(t *testing.T) {
	err := &RecoveredPanicError{Value: "boom"}
	if err.Error() != "panic: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	err.Stack = "goroutine 1"
	if !strings.Contains(err.Error(), "goroutine 1") {
		t.Errorf("Error() = %q, want stack", err.Error())
	}
}
