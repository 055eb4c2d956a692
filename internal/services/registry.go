package services

import (
	"sync"

	"github.com/plateful/backend/internal/models"
	"gorm.io/gorm"
)

// TokenRegistry manages the per-user set of currently valid refresh tokens,
// persisted as an ordered list on the user row. Every mutation is a
// read-modify-write of that list, so mutations for the same user are
// serialized through a per-user mutex and executed inside a transaction.
// Without that, two concurrent refreshes could both observe the presented
// token as present and both consume it.
type TokenRegistry struct {
	db        *gorm.DB
	maxTokens int

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewTokenRegistry creates a registry backed by db. maxTokens caps the list
// per user; <= 0 disables the cap.
func NewTokenRegistry(db *gorm.DB, maxTokens int) *TokenRegistry {
	return &TokenRegistry{
		db:        db,
		maxTokens: maxTokens,
		locks:     make(map[uint]*sync.Mutex),
	}
}

func (r *TokenRegistry) userLock(userID uint) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[userID] = lock
	}
	return lock
}

func (r *TokenRegistry) loadTokens(tx *gorm.DB, userID uint) ([]string, error) {
	var user models.User
	if err := tx.Select("id", "refresh_tokens").First(&user, userID).Error; err != nil {
		return nil, err
	}
	return user.RefreshTokens, nil
}

func (r *TokenRegistry) saveTokens(tx *gorm.DB, userID uint, tokens []string) error {
	if tokens == nil {
		tokens = []string{}
	}
	return tx.Model(&models.User{}).Where("id = ?", userID).
		Update("refresh_tokens", tokens).Error
}

// Append registers a newly issued refresh token for the user. When the cap
// is exceeded, the oldest tokens are evicted; they become invalid exactly as
// if they had been rotated away.
func (r *TokenRegistry) Append(userID uint, token string) error {
	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return r.db.Transaction(func(tx *gorm.DB) error {
		tokens, err := r.loadTokens(tx, userID)
		if err != nil {
			return err
		}

		tokens = append(tokens, token)
		if r.maxTokens > 0 && len(tokens) > r.maxTokens {
			tokens = tokens[len(tokens)-r.maxTokens:]
		}

		return r.saveTokens(tx, userID, tokens)
	})
}

// Contains reports whether the token is currently valid for the user.
func (r *TokenRegistry) Contains(userID uint, token string) (bool, error) {
	tokens, err := r.loadTokens(r.db, userID)
	if err != nil {
		return false, err
	}
	return containsToken(tokens, token), nil
}

// Rotate atomically consumes presented and registers replacement. If
// presented is not in the registry, the presentation is treated as reuse of
// an already-rotated token: the whole registry is cleared (revoking every
// descendant session) and ErrTokenReuse is returned. The wipe is persisted
// even though an error is returned.
func (r *TokenRegistry) Rotate(userID uint, presented, replacement string) error {
	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	reused := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		tokens, err := r.loadTokens(tx, userID)
		if err != nil {
			return err
		}

		if !containsToken(tokens, presented) {
			reused = true
			return r.saveTokens(tx, userID, nil)
		}

		tokens = removeToken(tokens, presented)
		tokens = append(tokens, replacement)
		if r.maxTokens > 0 && len(tokens) > r.maxTokens {
			tokens = tokens[len(tokens)-r.maxTokens:]
		}

		return r.saveTokens(tx, userID, tokens)
	})
	if err != nil {
		return err
	}
	if reused {
		return ErrTokenReuse
	}
	return nil
}

// Revoke removes one token (logout). Revoking a token that is already absent
// succeeds as a no-op; unlike Rotate, logout is never treated as a theft
// signal.
func (r *TokenRegistry) Revoke(userID uint, token string) error {
	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return r.db.Transaction(func(tx *gorm.DB) error {
		tokens, err := r.loadTokens(tx, userID)
		if err != nil {
			return err
		}

		if !containsToken(tokens, token) {
			return nil
		}

		return r.saveTokens(tx, userID, removeToken(tokens, token))
	})
}

// Trim drops the oldest tokens above the cap, keeping issuance order.
// No-op when the cap is disabled or the list already fits.
func (r *TokenRegistry) Trim(userID uint) error {
	if r.maxTokens <= 0 {
		return nil
	}

	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return r.db.Transaction(func(tx *gorm.DB) error {
		tokens, err := r.loadTokens(tx, userID)
		if err != nil {
			return err
		}
		if len(tokens) <= r.maxTokens {
			return nil
		}
		return r.saveTokens(tx, userID, tokens[len(tokens)-r.maxTokens:])
	})
}

// Clear revokes every refresh token for the user.
func (r *TokenRegistry) Clear(userID uint) error {
	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return r.saveTokens(r.db, userID, nil)
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

func removeToken(tokens []string, token string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != token {
			out = append(out, t)
		}
	}
	return out
}
