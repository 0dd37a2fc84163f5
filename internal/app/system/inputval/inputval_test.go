package inputval

import (
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/clubhub/internal/domain/models"
)

type sample struct {
	Name     string   `json:"name" validate:"notblank,max=10"`
	Email    string   `json:"email" validate:"required,email"`
	Grade    int      `json:"grade" validate:"min=9,max=12"`
	GPA      *float64 `json:"gpa" validate:"required,min=0,max=5"`
	Role     *string  `json:"role,omitempty" validate:"omitnil,role"`
	Amount   string   `json:"amount" validate:"omitempty,amount"`
	Category string   `json:"category" validate:"omitempty,ledger_category"`
	Tags     []string `json:"tags" validate:"max=2,dive,notblank"`
	Internal string   `json:"-" validate:"omitempty,max=1"`
}

func f64(v float64) *float64 { return &v }
func str(s string) *string   { return &s }

func TestCheck_Valid(t *testing.T) {
	s := sample{Name: "Ava", Email: "ava@example.com", Grade: 9, GPA: f64(0), Role: str("Coach"), Amount: "12.50", Category: "Player Dues"}
	if err := Check(s); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestCheck_ReportsEveryField(t *testing.T) {
	s := sample{
		Name:     "   ",
		Email:    "not-an-email",
		Grade:    13,
		Role:     str("superadmin"),
		Amount:   "-4",
		Category: "Snacks",
		Tags:     []string{"ok", " "},
	}
	err := Check(&s)
	if err == nil {
		t.Fatal("expected errors")
	}
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("errors.Is(err, ErrInvalidInput) = false")
	}

	var fe Errors
	if !errors.As(err, &fe) {
		t.Fatalf("expected Errors, got %T", err)
	}
	for _, field := range []string{"name", "email", "grade", "gpa", "role", "amount", "category", "tags[1]"} {
		if fe[field] == "" {
			t.Errorf("missing message for %q (got %v)", field, fe)
		}
	}
	if !strings.Contains(fe["name"], "cannot be blank") {
		t.Errorf("name message: %q", fe["name"])
	}
	if !strings.HasPrefix(fe["grade"], "grade") {
		t.Errorf("grade message should use the json name: %q", fe["grade"])
	}
}

func TestErrors_Error_IsSorted(t *testing.T) {
	e := Errors{"b": "two", "a": "one"}
	if got, want := e.Error(), "invalid input: a: one; b: two"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.50", "12.5", true},
		{" 7 ", "7", true},
		{"0.01", "0.01", true},
		{"12.300", "12.3", true},
		{"12.345", "", false},
		{"0", "", false},
		{"-3", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseAmount(tt.in)
			if (err == nil) != tt.ok {
				t.Fatalf("ParseAmount(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
			}
			if tt.ok && d.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, d, tt.want)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user.name+tag@example.co.uk", true},
		{"  user@example.com  ", true},
		{"", false},
		{"   ", false},
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{"User Name <user@example.com>", false},
		{"user @example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}
