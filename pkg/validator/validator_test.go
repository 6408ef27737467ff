package validator

import (
	"strings"
	"testing"
)

type callbackQuery struct {
	State string `validate:"required"`
	Code  string `validate:"required"`
}

func TestValidateStruct(t *testing.T) {
	v := New()

	if err := v.ValidateStruct(callbackQuery{State: "s", Code: "c"}); err != nil {
		t.Errorf("expected valid struct, got %v", err)
	}

	err := v.ValidateStruct(callbackQuery{})
	if err == nil {
		t.Fatal("expected an error for missing fields")
	}
	for _, field := range []string{"State failed on required", "Code failed on required"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("expected %q in %q", field, err.Error())
		}
	}
}
