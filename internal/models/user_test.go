package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestUser_ApplyPaidRule(t *testing.T) {
	tests := []struct {
		name   string
		role   Role
		isPaid *bool
		want   *bool
	}{
		{name: "admin with true is nulled", role: RoleAdmin, isPaid: boolPtr(true), want: nil},
		{name: "teacher with false is nulled", role: RoleTeacher, isPaid: boolPtr(false), want: nil},
		{name: "teacher with nil stays nil", role: RoleTeacher, isPaid: nil, want: nil},
		{name: "student keeps true", role: RoleStudent, isPaid: boolPtr(true), want: boolPtr(true)},
		{name: "student keeps false", role: RoleStudent, isPaid: boolPtr(false), want: boolPtr(false)},
		{name: "student without value gets false", role: RoleStudent, isPaid: nil, want: boolPtr(false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Role: tt.role, IsPaid: tt.isPaid}
			u.ApplyPaidRule()
			if tt.want == nil {
				assert.Nil(t, u.IsPaid)
				return
			}
			require.NotNil(t, u.IsPaid)
			assert.Equal(t, *tt.want, *u.IsPaid)
		})
	}
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"admin", "teacher", "student"} {
		r, ok := ParseRole(s)
		assert.True(t, ok, s)
		assert.Equal(t, Role(s), r)
	}

	_, ok := ParseRole("superuser")
	assert.False(t, ok)
	_, ok = ParseRole("")
	assert.False(t, ok)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.Com "))
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError("email", "user with this email already exists.")
	verr.Add("password", "too short")
	assert.False(t, verr.Empty())
	assert.Contains(t, verr.Error(), "email")
	assert.Contains(t, verr.Error(), "password")
	assert.False(t, errors.Is(verr, ErrImmutableField))

	imm := ImmutableFieldError("email", "Email address cannot be changed.")
	assert.True(t, errors.Is(imm, ErrImmutableField))

	var target *ValidationError
	require.True(t, errors.As(error(imm), &target))
	assert.Equal(t, []string{"Email address cannot be changed."}, target.Fields["email"])
}

func TestTeacherDisplay(t *testing.T) {
	u := &User{FirstName: "Ivan", LastName: "Petrov"}
	p := &TeacherProfile{Type: TeachingPractice}
	assert.Equal(t, "Ivan Petrov (Practice)", TeacherDisplay(u, p))
}
