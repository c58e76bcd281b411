package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Amount
	}{
		{"0", 0},
		{"0.01", 1},
		{"3.50", 350},
		{"3.5", 350},
		{"100", 10000},
		{"1234.99", 123499},
		{"-5.25", -525},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "abc", "3..50", "GHS 3.50"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) accepted malformed input", in)
		}
	}
}

func TestParseRejectsSubMinorPrecision(t *testing.T) {
	for _, in := range []string{"3.505", "0.001", "-1.999"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) must reject sub-minor precision", in)
		}
	}
}

func TestFromDecimal(t *testing.T) {
	got, err := FromDecimal(decimal.NewFromFloat(12.34))
	if err != nil {
		t.Fatalf("FromDecimal: %v", err)
	}
	if got != 1234 {
		t.Fatalf("FromDecimal(12.34) = %d, want 1234", got)
	}

	if _, err := FromDecimal(decimal.RequireFromString("12.345")); err == nil {
		t.Fatal("FromDecimal must reject sub-minor precision")
	}
}

func TestString(t *testing.T) {
	cases := []struct {
		in   Amount
		want string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{350, "3.50"},
		{123499, "1234.99"},
		{-525, "-5.25"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Errorf("Amount(%d).String() = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, in := range []string{"0.00", "3.50", "1234.99", "-5.25"} {
		a := MustParse(in)
		if got := a.String(); got != in {
			t.Errorf("MustParse(%q).String() = %q", in, got)
		}
	}
}

func TestMustParsePanicsOnBadInput(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustParse must panic on malformed input")
		}
	}()
	MustParse("not-a-number")
}

func TestSigns(t *testing.T) {
	if !Amount(1).IsPositive() || Amount(0).IsPositive() || Amount(-1).IsPositive() {
		t.Fatal("IsPositive misclassifies")
	}
	if !Amount(-1).IsNegative() || Amount(0).IsNegative() || Amount(1).IsNegative() {
		t.Fatal("IsNegative misclassifies")
	}
}

func TestClampMargin(t *testing.T) {
	cases := []struct {
		selling, base, want Amount
	}{
		{500, 350, 150},
		{350, 350, 0},
		{300, 350, 0},
		{350, 0, 350},
	}
	for _, c := range cases {
		if got := ClampMargin(c.selling, c.base); got != c.want {
			t.Errorf("ClampMargin(%d, %d) = %d, want %d", c.selling, c.base, got, c.want)
		}
	}
}
