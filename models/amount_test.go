package models

import (
	"encoding/json"
	"testing"
)

func TestAmountFromDecimal(t *testing.T) {
	tests := []struct {
		value    string
		expected string
		wantErr  bool
	}{
		{value: "1.0", expected: "100000000"},
		{value: "10", expected: "1000000000"},
		{value: "0.0001", expected: "10000"},
		{value: "8.9999", expected: "899990000"},
		{value: "0.00000001", expected: "1"},
		{value: "0.000000001", wantErr: true},
		{value: "abc", wantErr: true},
		{value: "", wantErr: true},
	}

	for i, test := range tests {
		a, err := AmountFromDecimal(test.value)
		if test.wantErr {
			if err == nil {
				t.Errorf("Test %d: expected error for %q, got none", i, test.value)
			}
			continue
		}
		if err != nil {
			t.Errorf("Test %d: unexpected error: %s", i, err)
			continue
		}
		if a.String() != test.expected {
			t.Errorf("Test %d: expected %s, got %s", i, test.expected, a.String())
		}
	}
}

func TestAmountDecimal(t *testing.T) {
	tests := []struct {
		minor    interface{}
		expected string
	}{
		{minor: 100000000, expected: "1"},
		{minor: 899990000, expected: "8.9999"},
		{minor: 1, expected: "0.00000001"},
		{minor: 0, expected: "0"},
	}

	for i, test := range tests {
		a := NewAmount(test.minor)
		if a.Decimal() != test.expected {
			t.Errorf("Test %d: expected %s, got %s", i, test.expected, a.Decimal())
		}
	}
}

func TestAmountArithmetic(t *testing.T) {
	a := NewAmount("1000000000")
	b := NewAmount(10000)

	if a.Sub(b).String() != "999990000" {
		t.Errorf("Expected 999990000, got %s", a.Sub(b).String())
	}
	if a.Add(b).String() != "1000010000" {
		t.Errorf("Expected 1000010000, got %s", a.Add(b).String())
	}
	if a.Cmp(b) != 1 || b.Cmp(a) != -1 || a.Cmp(a) != 0 {
		t.Error("Cmp returned incorrect ordering")
	}
	if !NewAmount(0).Sub(b).IsNegative() {
		t.Error("Expected negative amount")
	}
}

func TestAmountJSON(t *testing.T) {
	type wrapper struct {
		Value Amount `json:"value"`
	}

	out, err := json.Marshal(wrapper{Value: NewAmount(899990000)})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"value":"899990000"}` {
		t.Errorf("Unexpected marshaled output: %s", string(out))
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"value":"12345"}`), &w); err != nil {
		t.Fatal(err)
	}
	if w.Value.String() != "12345" {
		t.Errorf("Expected 12345, got %s", w.Value.String())
	}

	if err := json.Unmarshal([]byte(`{"value":12345}`), &w); err != nil {
		t.Fatal(err)
	}
	if w.Value.String() != "12345" {
		t.Errorf("Expected 12345, got %s", w.Value.String())
	}
}
