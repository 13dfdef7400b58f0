package order

import (
	"strings"
	"testing"
)

func TestNewMemoShapeAndAlphabet(t *testing.T) {
	memo, err := NewMemo()
	if err != nil {
		t.Fatalf("NewMemo: %v", err)
	}
	if len(memo) != MemoLength {
		t.Fatalf("memo length = %d, want %d", len(memo), MemoLength)
	}
	for _, r := range memo {
		if !strings.ContainsRune(memoAlphabet, r) {
			t.Fatalf("memo %q contains %q outside the alphabet", memo, r)
		}
	}
}

func TestNewMemoOmitsConfusableCharacters(t *testing.T) {
	for _, bad := range "01IO" {
		if strings.ContainsRune(memoAlphabet, bad) {
			t.Fatalf("alphabet must not contain %q", bad)
		}
	}
}

func TestNewMemoIsUniqueEnough(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		memo, err := NewMemo()
		if err != nil {
			t.Fatalf("NewMemo: %v", err)
		}
		if _, dup := seen[memo]; dup {
			t.Fatalf("duplicate memo %q after %d draws", memo, i)
		}
		seen[memo] = struct{}{}
	}
}
