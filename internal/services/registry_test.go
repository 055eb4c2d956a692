package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/plateful/backend/internal/models"
)

func newTestRegistry(t *testing.T, maxTokens int) (*TokenRegistry, uint) {
	t.Helper()
	db := newTestDB(t)

	user := models.User{
		Email:         "registry@test.local",
		FullName:      "Registry",
		HomeCity:      "Haifa",
		AuthType:      "local",
		RefreshTokens: []string{},
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return NewTokenRegistry(db, maxTokens), user.ID
}

func TestRegistry_AppendAndContains(t *testing.T) {
	reg, userID := newTestRegistry(t, 0)

	if err := reg.Append(userID, "token-a"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := reg.Append(userID, "token-b"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	for _, token := range []string{"token-a", "token-b"} {
		ok, err := reg.Contains(userID, token)
		if err != nil {
			t.Fatalf("Contains() error = %v", err)
		}
		if !ok {
			t.Errorf("Contains(%q) = false, expected true", token)
		}
	}

	ok, _ := reg.Contains(userID, "token-c")
	if ok {
		t.Error("Contains should be false for a never-issued token")
	}
}

func TestRegistry_AppendEvictsOldestAboveCap(t *testing.T) {
	reg, userID := newTestRegistry(t, 3)

	for _, token := range []string{"t1", "t2", "t3", "t4"} {
		if err := reg.Append(userID, token); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	if ok, _ := reg.Contains(userID, "t1"); ok {
		t.Error("oldest token should have been evicted at the cap")
	}
	for _, token := range []string{"t2", "t3", "t4"} {
		if ok, _ := reg.Contains(userID, token); !ok {
			t.Errorf("token %q should have survived eviction", token)
		}
	}
}

func TestRegistry_Rotate(t *testing.T) {
	reg, userID := newTestRegistry(t, 0)

	if err := reg.Append(userID, "old"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := reg.Rotate(userID, "old", "new"); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}

	if ok, _ := reg.Contains(userID, "old"); ok {
		t.Error("rotated token should have been removed")
	}
	if ok, _ := reg.Contains(userID, "new"); !ok {
		t.Error("replacement token should be present")
	}
}

func TestRegistry_RotateAbsentTokenWipesAll(t *testing.T) {
	reg, userID := newTestRegistry(t, 0)

	for _, token := range []string{"t1", "t2", "t3"} {
		if err := reg.Append(userID, token); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	err := reg.Rotate(userID, "never-issued", "new")
	if !errors.Is(err, ErrTokenReuse) {
		t.Fatalf("Rotate() error = %v, expected ErrTokenReuse", err)
	}

	// The wipe must be persisted even though an error was returned.
	for _, token := range []string{"t1", "t2", "t3", "new"} {
		if ok, _ := reg.Contains(userID, token); ok {
			t.Errorf("token %q should have been revoked by the wipe", token)
		}
	}
}

func TestRegistry_ConcurrentRotateHasOneWinner(t *testing.T) {
	reg, userID := newTestRegistry(t, 0)

	if err := reg.Append(userID, "shared"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = reg.Rotate(userID, "shared", "replacement")
		}(i)
	}
	wg.Wait()

	var wins, reuses int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrTokenReuse):
			reuses++
		default:
			t.Fatalf("unexpected Rotate() error = %v", err)
		}
	}

	if wins != 1 || reuses != 1 {
		t.Errorf("expected exactly one winner and one reuse, got %d wins / %d reuses", wins, reuses)
	}

	// Per-user serialization means the loser always runs after the winner,
	// so its reuse detection wipes the whole registry, replacement included.
	// That is the documented behavior of racing refreshes on the same token.
	if tokens := registryTokens(t, reg.db, userID); len(tokens) != 0 {
		t.Errorf("registry should be empty after the race, got %v", tokens)
	}
}

func TestRegistry_RevokeIsIdempotent(t *testing.T) {
	reg, userID := newTestRegistry(t, 0)

	if err := reg.Append(userID, "tok"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := reg.Revoke(userID, "tok"); err != nil {
		t.Fatalf("first Revoke() error = %v", err)
	}
	if err := reg.Revoke(userID, "tok"); err != nil {
		t.Fatalf("second Revoke() error = %v", err)
	}

	if ok, _ := reg.Contains(userID, "tok"); ok {
		t.Error("revoked token should be absent")
	}
}

func TestRegistry_RevokeDoesNotWipeOtherTokens(t *testing.T) {
	reg, userID := newTestRegistry(t, 0)

	for _, token := range []string{"t1", "t2"} {
		if err := reg.Append(userID, token); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	// Revoking an absent token is a no-op for the rest of the registry;
	// logout never triggers the reuse wipe.
	if err := reg.Revoke(userID, "t1"); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if err := reg.Revoke(userID, "t1"); err != nil {
		t.Fatalf("repeat Revoke() error = %v", err)
	}

	if ok, _ := reg.Contains(userID, "t2"); !ok {
		t.Error("unrelated token should survive logout of another token")
	}
}

func TestRegistry_Clear(t *testing.T) {
	reg, userID := newTestRegistry(t, 0)

	for _, token := range []string{"t1", "t2"} {
		if err := reg.Append(userID, token); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	if err := reg.Clear(userID); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	for _, token := range []string{"t1", "t2"} {
		if ok, _ := reg.Contains(userID, token); ok {
			t.Errorf("token %q should have been cleared", token)
		}
	}
}

func TestRegistry_Trim(t *testing.T) {
	reg, userID := newTestRegistry(t, 0)

	for _, token := range []string{"t1", "t2", "t3", "t4", "t5"} {
		if err := reg.Append(userID, token); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	capped := NewTokenRegistry(reg.db, 2)
	if err := capped.Trim(userID); err != nil {
		t.Fatalf("Trim() error = %v", err)
	}

	tokens := registryTokens(t, reg.db, userID)
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens after trim, got %d", len(tokens))
	}
	if tokens[0] != "t4" || tokens[1] != "t5" {
		t.Errorf("trim should keep the newest tokens in order, got %v", tokens)
	}
}

func TestRegistry_IsolationBetweenUsers(t *testing.T) {
	reg, userA := newTestRegistry(t, 0)

	userB := models.User{
		Email:         "other@test.local",
		FullName:      "Other",
		HomeCity:      "Eilat",
		AuthType:      "local",
		RefreshTokens: []string{},
	}
	if err := reg.db.Create(&userB).Error; err != nil {
		t.Fatalf("failed to create second user: %v", err)
	}

	if err := reg.Append(userA, "token-a"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if ok, _ := reg.Contains(userB.ID, "token-a"); ok {
		t.Error("user A's token must not validate in user B's registry")
	}
}
