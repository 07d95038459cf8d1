package connection

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/99designs/keyring"
	"github.com/jackc/pgx/v5/pgconn"
)

const serviceName = "pglens"

// ErrPasswordNotFound is returned when the keyring has no entry for a target
var ErrPasswordNotFound = errors.New("password not found in keyring")

// PasswordStore keeps database passwords in the OS keyring, falling back
// to an encrypted file when no native backend is available
type PasswordStore struct {
	ring keyring.Keyring
}

// NewPasswordStore opens the keyring with platform-appropriate backends
func NewPasswordStore(configDir string) (*PasswordStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:     serviceName,
		AllowedBackends: backendsForPlatform(),
		FileDir:         filepath.Join(configDir, "keyring"),
		FilePasswordFunc: func(_ string) (string, error) {
			return deriveFilePassword()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &PasswordStore{ring: ring}, nil
}

// newPasswordStoreWith wraps an already opened keyring
func newPasswordStoreWith(ring keyring.Keyring) *PasswordStore {
	return &PasswordStore{ring: ring}
}

func backendsForPlatform() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		return []keyring.BackendType{keyring.KeychainBackend, keyring.FileBackend}
	case "linux":
		return []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.FileBackend}
	case "windows":
		return []keyring.BackendType{keyring.WinCredBackend, keyring.FileBackend}
	default:
		return []keyring.BackendType{keyring.FileBackend}
	}
}

// Save stores a password. Empty passwords are not stored.
func (ps *PasswordStore) Save(host string, port uint16, database, user, password string) error {
	if password == "" {
		return nil
	}

	err := ps.ring.Set(keyring.Item{
		Key:         makeKey(host, port, database, user),
		Data:        []byte(password),
		Label:       fmt.Sprintf("pglens: %s@%s:%d/%s", user, host, port, database),
		Description: "PostgreSQL connection password for pglens",
	})
	if err != nil {
		return fmt.Errorf("failed to save password to keyring: %w", err)
	}
	return nil
}

// Get retrieves a password
func (ps *PasswordStore) Get(host string, port uint16, database, user string) (string, error) {
	item, err := ps.ring.Get(makeKey(host, port, database, user))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrPasswordNotFound
		}
		return "", fmt.Errorf("failed to read password from keyring: %w", err)
	}
	return string(item.Data), nil
}

// Delete removes a password
func (ps *PasswordStore) Delete(host string, port uint16, database, user string) error {
	err := ps.ring.Remove(makeKey(host, port, database, user))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete password from keyring: %w", err)
	}
	return nil
}

// ResolvePassword completes connString with a password from the store when
// it carries none. When it does carry one and remember is set, the password
// is saved for later sessions. The returned string is always usable as a
// pgx connection string.
func (ps *PasswordStore) ResolvePassword(connString string, remember bool) (string, error) {
	cfg, err := pgconn.ParseConfig(connString)
	if err != nil {
		return "", fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.Password != "" {
		if remember {
			if err := ps.Save(cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password); err != nil {
				return connString, err
			}
		}
		return connString, nil
	}

	password, err := ps.Get(cfg.Host, cfg.Port, cfg.Database, cfg.User)
	if err != nil {
		if errors.Is(err, ErrPasswordNotFound) {
			return connString, nil
		}
		return connString, err
	}
	return WithPassword(connString, password), nil
}

func makeKey(host string, port uint16, database, user string) string {
	return fmt.Sprintf("%s:%d:%s:%s", host, port, database, user)
}
