package secret

// NewTestKeychain returns a KeychainStore that runs commands through run.
func NewTestKeychain(run func(name string, args ...string) ([]byte, error)) *KeychainStore {
	return &KeychainStore{service: "flowboard-test", run: run}
}
