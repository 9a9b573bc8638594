package errors

import (
	stderrors "errors"
	"testing"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(RoomNotFound)
	if err.Code != RoomNotFound {
		t.Fatalf("code = %d, want %d", err.Code, RoomNotFound)
	}
	if err.Message != RoomNotFound.Message() {
		t.Fatalf("message = %q, want %q", err.Message, RoomNotFound.Message())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(cause, InternalServerError)
	if !stderrors.Is(err, cause) {
		t.Fatal("wrapped cause not reachable via errors.Is")
	}
	if GetCode(err) != InternalServerError {
		t.Fatalf("code = %d, want %d", GetCode(err), InternalServerError)
	}
}

func TestGetCodeFallback(t *testing.T) {
	if got := GetCode(stderrors.New("plain")); got != InternalServerError {
		t.Fatalf("code = %d, want %d", got, InternalServerError)
	}
	if got := GetCode(nil); got != Success {
		t.Fatalf("code = %d, want %d", got, Success)
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := Newf(CardNotInHand, "card %s", "abc")
	if !Is(err, CardNotInHand) {
		t.Fatal("Is failed on matching code")
	}
	if Is(err, CardNotSelected) {
		t.Fatal("Is matched wrong code")
	}
}

func TestWithDetail(t *testing.T) {
	err := New(InvalidParams).WithDetail("field", "username")
	if err.Details["field"] != "username" {
		t.Fatalf("details = %+v", err.Details)
	}
}
