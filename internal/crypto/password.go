package crypto

import "golang.org/x/crypto/bcrypt"

// Hasher wraps bcrypt with a configurable work factor. A single value is
// shared by registration and login so hashes stay comparable.
type Hasher struct {
	Cost int
}

// NewHasher clamps the cost into bcrypt's supported range.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return Hasher{Cost: cost}
}

// Hash returns the bcrypt hash of plain using the configured cost.
func (h Hasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare safely compares a bcrypt hash and a plain password.
func (h Hasher) Compare(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
