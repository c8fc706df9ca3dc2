package library

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Supported digest algorithms.
const (
	DigestSHA256  = "sha256"
	DigestSHA3    = "sha3-256"
	DigestBLAKE2b = "blake2b-256"
)

// Digester turns a plaintext password into a deterministic hex digest.
type Digester struct {
	algorithm string
	newHash   func() hash.Hash
}

// NewDigester returns a Digester for the named algorithm. An empty name
// selects sha256, which is what existing catalogs were written with.
func NewDigester(algorithm string) (*Digester, error) {
	switch algorithm {
	case "", DigestSHA256:
		return &Digester{algorithm: DigestSHA256, newHash: sha256.New}, nil
	case DigestSHA3:
		return &Digester{algorithm: DigestSHA3, newHash: sha3.New256}, nil
	case DigestBLAKE2b:
		return &Digester{algorithm: DigestBLAKE2b, newHash: func() hash.Hash {
			h, _ := blake2b.New256(nil) // only fails for oversized keys
			return h
		}}, nil
	default:
		return nil, fmt.Errorf("unknown digest algorithm %q", algorithm)
	}
}

// Algorithm reports the algorithm name.
func (dg *Digester) Algorithm() string { return dg.algorithm }

// Digest hashes the UTF-8 bytes of password.
func (dg *Digester) Digest(password string) string {
	h := dg.newHash()
	h.Write([]byte(password))
	return hex.EncodeToString(h.Sum(nil))
}

// UserStore is the slice of Database the credential service needs.
type UserStore interface {
	InsertUser(nickname, digest string) (int64, error)
	FindUser(nickname, digest string) (*User, error)
}

type credentialsInput struct {
	Nickname string `validate:"required"`
	Password string `validate:"required"`
}

// Credentials registers users and checks login attempts.
type Credentials struct {
	store    UserStore
	digester *Digester
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCredentials wires a credential service over store.
func NewCredentials(store UserStore, digester *Digester, logger *zap.Logger) *Credentials {
	return &Credentials{
		store:    store,
		digester: digester,
		validate: validator.New(),
		logger:   logger.Named("credentials"),
	}
}

// Register creates a user. A taken nickname is reported as ErrDuplicateUser.
func (c *Credentials) Register(nickname, password string) (*User, error) {
	if err := c.validate.Struct(credentialsInput{Nickname: nickname, Password: password}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, describeValidation(err))
	}

	digest := c.digester.Digest(password)
	id, err := c.store.InsertUser(nickname, digest)
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			c.logger.Info("registration rejected, nickname taken", zap.String("nickname", nickname))
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("register %q: %w", nickname, err)
	}

	c.logger.Debug("user registered", zap.String("nickname", nickname), zap.Int64("id", id))
	return &User{ID: id, Nickname: nickname, PasswordDigest: digest}, nil
}

// Login returns the user matching nickname and password, or
// ErrAuthenticationFailed.
func (c *Credentials) Login(nickname, password string) (*User, error) {
	u, err := c.store.FindUser(nickname, c.digester.Digest(password))
	if errors.Is(err, ErrNotFound) {
		c.logger.Warn("login failed", zap.String("nickname", nickname))
		return nil, ErrAuthenticationFailed
	}
	if err != nil {
		return nil, fmt.Errorf("login %q: %w", nickname, err)
	}
	c.logger.Debug("user logged in", zap.String("nickname", nickname), zap.Int64("id", u.ID))
	return u, nil
}

// describeValidation renders validator errors as "Field is required" lines
// without the struct prefix.
func describeValidation(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return err.Error()
	}
	fe := ve[0]
	if fe.Tag() == "required" {
		return fmt.Sprintf("%s is required", lowerFirst(fe.Field()))
	}
	return fmt.Sprintf("%s failed %s", lowerFirst(fe.Field()), fe.Tag())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
