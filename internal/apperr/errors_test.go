package apperr

import (
	"fmt"
	"testing"
)

func TestIsRejection(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{fmt.Errorf("%w: digest mismatch", ErrSignature), true},
		{fmt.Errorf("%w: \"issues\"", ErrUnsupportedEvent), true},
		{fmt.Errorf("%w: exit status 128", ErrClone), false},
		{fmt.Errorf("%w: exit status 1", ErrPull), false},
		{ErrNotFound, false},
		{nil, false},
	}
	for _, c := range cases {
		if got := IsRejection(c.err); got != c.want {
			t.Errorf("IsRejection(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"offset": "min [0]", "limit": "between [1, 100]"}}
	want := "validation failed: limit: between [1, 100], offset: min [0]"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
