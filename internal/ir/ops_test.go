package ir

import "testing"

func TestBinOpFor(t *testing.T) {
	tests := []struct {
		lexeme string
		want   BinOp
	}{
		{"+", OpAdd},
		{"//", OpFloorDiv},
		{"**", OpPow},
		{"not in", OpNotContains},
		{"is not", OpIsNot},
		{"<<", OpShl},
	}
	for _, tt := range tests {
		got, ok := BinOpFor(tt.lexeme)
		if !ok {
			t.Errorf("BinOpFor(%q): not found", tt.lexeme)
			continue
		}
		if got != tt.want {
			t.Errorf("BinOpFor(%q) = %v, want %v", tt.lexeme, got, tt.want)
		}
	}
	if _, ok := BinOpFor("@"); ok {
		t.Error("BinOpFor(\"@\") should not resolve")
	}
}

func TestUnaryOpFor(t *testing.T) {
	if op, ok := UnaryOpFor("not"); !ok || op != OpNot {
		t.Errorf("UnaryOpFor(\"not\") = %v, %v", op, ok)
	}
	if _, ok := UnaryOpFor("*"); ok {
		t.Error("UnaryOpFor(\"*\") should not resolve")
	}
}

func TestAugOpFor(t *testing.T) {
	if op, ok := AugOpFor("//"); !ok || op != AugFloorDiv {
		t.Errorf("AugOpFor(\"//\") = %v, %v", op, ok)
	}
	if op, ok := AugOpFor("**"); !ok || op != AugPow {
		t.Errorf("AugOpFor(\"**\") = %v, %v", op, ok)
	}
}
