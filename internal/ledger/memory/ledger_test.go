package memory

import (
	"context"
	"errors"
	"testing"

	"paystream/internal/ledger"
)

func TestTransfer_MovesFunds(t *testing.T) {
	l := NewLedger()
	l.Mint("alice", "token-native", 100)

	if err := l.Transfer(context.Background(), "alice", "bob", "token-native", 40); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := l.Balance("alice", "token-native"); got != 60 {
		t.Fatalf("expected alice=60, got %d", got)
	}
	if got := l.Balance("bob", "token-native"); got != 40 {
		t.Fatalf("expected bob=40, got %d", got)
	}
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	l := NewLedger()
	l.Mint("alice", "token-native", 10)

	err := l.Transfer(context.Background(), "alice", "bob", "token-native", 11)
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if got := l.Balance("alice", "token-native"); got != 10 {
		t.Fatalf("failed transfer must not move funds, alice=%d", got)
	}
}

func TestTransfer_RejectsNonPositiveAndSelf(t *testing.T) {
	l := NewLedger()
	l.Mint("alice", "token-native", 10)

	if err := l.Transfer(context.Background(), "alice", "bob", "token-native", 0); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if err := l.Transfer(context.Background(), "alice", "alice", "token-native", 5); !errors.Is(err, ledger.ErrSameAccount) {
		t.Fatalf("expected same account error, got %v", err)
	}
}

func TestTransfer_AssetsIsolated(t *testing.T) {
	l := NewLedger()
	l.Mint("alice", "token-a", 100)

	err := l.Transfer(context.Background(), "alice", "bob", "token-b", 1)
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds across assets, got %v", err)
	}
}
