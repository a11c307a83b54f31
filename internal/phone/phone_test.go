package phone

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+38 (050) 123-45-67", "+380501234567"},
		{"++123", "+123"},
		{"0501234567", "0501234567"},
		{" + 380 50 123 45 67 ", "+380501234567"},
		{"abc", ""},
		{"", ""},
		{"+", ""},
		{"()- ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"+38 (050) 123-45-67", "++123", "0501234567", "garbage", ""}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"+38 (050) 123-45-67", "+380501234567", "nope", "12345"})
	want := []string{"+380501234567", "12345"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeList = %#v, want %#v", got, want)
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		in        string
		phones    []string
		remainder string
	}{
		{
			in:        "+380991112233 great customer",
			phones:    []string{"+380991112233"},
			remainder: "great customer",
		},
		{
			in:        "VIP, +38 (050) 123-45-67, pays cash",
			phones:    []string{"+380501234567"},
			remainder: "VIP, pays cash",
		},
		{
			in:        "0501234567 +380501234567 regular",
			phones:    []string{"0501234567", "+380501234567"},
			remainder: "regular",
		},
		{
			in:        "just a comment",
			phones:    nil,
			remainder: "just a comment",
		},
		{
			in:        "+380991112233",
			phones:    []string{"+380991112233"},
			remainder: "",
		},
	}
	for _, tt := range tests {
		phones, rest := Extract(tt.in)
		if !reflect.DeepEqual(phones, tt.phones) {
			t.Fatalf("Extract(%q) phones = %#v, want %#v", tt.in, phones, tt.phones)
		}
		if rest != tt.remainder {
			t.Fatalf("Extract(%q) remainder = %q, want %q", tt.in, rest, tt.remainder)
		}
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("+380501234567"); got != 12 {
		t.Fatalf("Digits = %d, want 12", got)
	}
	if got := Digits("12345"); got != 5 {
		t.Fatalf("Digits = %d, want 5", got)
	}
}

func TestFormatDisplay(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+380501234567", "+38050 123 45 67"},
		{"0501234567", "050 123 45 67"},
		{"12345", "12345"},
	}
	for _, tt := range tests {
		if got := FormatDisplay(tt.in); got != tt.want {
			t.Fatalf("FormatDisplay(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
