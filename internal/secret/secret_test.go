package secret_test

import (
	"os/exec"
	"testing"

	"flowboard/internal/secret"
)

func TestStoreKey(t *testing.T) {
	got := secret.StoreKey("postgres", "flow", "db.local", 5432, "boards")
	if got != "postgres://flow@db.local:5432/boards" {
		t.Errorf("StoreKey = %q", got)
	}
}

func TestMemoryStore(t *testing.T) {
	var s secret.SecretStore = secret.NewMemoryStore()

	v, err := s.Get("missing")
	if err != nil || len(v) != 0 {
		t.Fatalf("Get(missing) = %q, %v", v, err)
	}

	pw := []byte("hunter2")
	if err := s.Set("k", pw); err != nil {
		t.Fatal(err)
	}
	pw[0] = 'X'
	v, _ = s.Get("k")
	if string(v) != "hunter2" {
		t.Errorf("Get = %q, want stored copy", v)
	}

	s.Delete("k")
	if v, _ := s.Get("k"); len(v) != 0 {
		t.Errorf("Get after Delete = %q", v)
	}
}

func TestKeychainStore_Commands(t *testing.T) {
	var calls [][]string
	k := secret.NewTestKeychain(func(name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		return []byte("s3cret\n"), nil
	})

	v, err := k.Get("postgres://flow@db:5432/boards")
	if err != nil || string(v) != "s3cret" {
		t.Fatalf("Get = %q, %v", v, err)
	}
	if err := k.Set("key", []byte("pw")); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 || calls[0][1] != "find-generic-password" || calls[1][1] != "add-generic-password" {
		t.Errorf("calls = %v", calls)
	}
}

func TestKeychainStore_MissingTool(t *testing.T) {
	k := secret.NewTestKeychain(func(string, ...string) ([]byte, error) {
		return nil, exec.ErrNotFound
	})
	v, err := k.Get("key")
	if err != nil || v != nil {
		t.Errorf("Get without security tool = %q, %v", v, err)
	}
	if err := k.Delete("key"); err != nil {
		t.Errorf("Delete without security tool: %v", err)
	}
	if err := k.Set("key", []byte("pw")); err == nil {
		t.Error("Set without security tool succeeded")
	}
}
