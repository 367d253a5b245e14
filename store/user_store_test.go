// store/user_store_test.go
package store

import (
	"context"
	"errors"
	"testing"

	"nft-mint-service/models"
)

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"User@Example.COM", "user@example.com"},
		{"  padded@example.com  ", "padded@example.com"},
		{"already@lower.case", "already@lower.case"},
	}
	for _, tc := range cases {
		if got := NormalizeEmail(tc.in); got != tc.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGetOrCreateByEmailIsIdempotent(t *testing.T) {
	s := NewMemoryUserStore()
	ctx := context.Background()

	first, err := s.GetOrCreateByEmail(ctx, "Alice@Example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Email != "alice@example.com" {
		t.Fatalf("email not normalized on create: %q", first.Email)
	}

	// Different spellings of the same address resolve to the same row.
	second, err := s.GetOrCreateByEmail(ctx, "  ALICE@example.COM ")
	if err != nil {
		t.Fatalf("re-get: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected one user, got two ids %s and %s", first.ID, second.ID)
	}

	byEmail, err := s.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != first.ID {
		t.Fatalf("lookup returned a different user: %s", byEmail.ID)
	}
}

func TestAttachWalletWritesAtMostOnce(t *testing.T) {
	s := NewMemoryUserStore()
	ctx := context.Background()

	user, err := s.GetOrCreateByEmail(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first := &models.Wallet{ID: "w-1", Address: "0xabc", AccountType: models.AccountTypeSCA}
	if err := s.AttachWallet(ctx, user.ID, first); err != nil {
		t.Fatalf("first attach: %v", err)
	}

	err = s.AttachWallet(ctx, user.ID, &models.Wallet{ID: "w-2", Address: "0xdef", AccountType: models.AccountTypeEOA})
	if !errors.Is(err, models.ErrWalletAlreadyAttached) {
		t.Fatalf("second attach must lose the compare-and-set, got %v", err)
	}

	// The loser's write never lands.
	got, err := s.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.WalletID == nil || *got.WalletID != "w-1" {
		t.Fatalf("expected wallet w-1 to stick, got %+v", got)
	}
	if got.WalletAddress == nil || *got.WalletAddress != "0xabc" {
		t.Fatalf("expected address 0xabc to stick, got %+v", got)
	}
	if got.WalletAccountType != models.AccountTypeSCA {
		t.Fatalf("expected account type SCA to stick, got %q", got.WalletAccountType)
	}
}

func TestAttachWalletUnknownUser(t *testing.T) {
	s := NewMemoryUserStore()
	err := s.AttachWallet(context.Background(), "no-such-id", &models.Wallet{ID: "w-1", Address: "0xabc"})
	if !errors.Is(err, models.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserLookupMisses(t *testing.T) {
	s := NewMemoryUserStore()
	ctx := context.Background()

	if _, err := s.GetByEmail(ctx, "ghost@example.com"); !errors.Is(err, models.ErrUserNotFound) {
		t.Fatalf("GetByEmail miss: %v", err)
	}
	if _, err := s.GetByID(ctx, "ghost"); !errors.Is(err, models.ErrUserNotFound) {
		t.Fatalf("GetByID miss: %v", err)
	}
}

func TestUserReadsReturnCopies(t *testing.T) {
	s := NewMemoryUserStore()
	ctx := context.Background()

	user, _ := s.GetOrCreateByEmail(ctx, "carol@example.com")
	walletID := "hijack"
	user.WalletID = &walletID

	fresh, _ := s.GetByID(ctx, user.ID)
	if fresh.HasWallet() {
		t.Fatal("mutating a returned user must not touch the store")
	}
}
