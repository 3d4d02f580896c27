package secret

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const keychainService = "flowboard-store"

// exitItemNotFound is what `security` exits with for a missing item.
const exitItemNotFound = 44

// KeychainStore implements SecretStore with the macOS Keychain through the
// `security` CLI. Where the tool is missing every lookup finds nothing.
type KeychainStore struct {
	service string
	run     func(name string, args ...string) ([]byte, error)
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{service: keychainService, run: runCommand}
}

func runCommand(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// Set stores a secret, replacing any previous value.
func (k *KeychainStore) Set(key string, value []byte) error {
	_, err := k.run("security", "add-generic-password",
		"-a", key,
		"-s", k.service,
		"-w", string(value),
		"-U",
	)
	if err != nil {
		return fmt.Errorf("keychain set %s: %w", key, err)
	}
	return nil
}

// Get returns the secret for key, or nothing when there is none.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	out, err := k.run("security", "find-generic-password", "-a", key, "-s", k.service, "-w")
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return []byte(strings.TrimRight(string(out), "\r\n")), nil
	case errors.As(err, &exitErr) && exitErr.ExitCode() == exitItemNotFound:
		return nil, nil
	case errors.Is(err, exec.ErrNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("keychain get %s: %w", key, err)
	}
}

// Delete removes the secret for key. A missing item is not an error.
func (k *KeychainStore) Delete(key string) error {
	_, err := k.run("security", "delete-generic-password", "-a", key, "-s", k.service)
	var exitErr *exec.ExitError
	if err != nil && !(errors.As(err, &exitErr) && exitErr.ExitCode() == exitItemNotFound) && !errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("keychain delete %s: %w", key, err)
	}
	return nil
}
