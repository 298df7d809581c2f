package service

import (
	"crypto/subtle"

	"github.com/zachlagden/zlapi/internal/keystore"
)

// Authenticator decides whether a presented credential is valid. Two
// independent acceptance paths exist: membership in the key store, or
// equality with the configured master key. The check is stateless and
// read-only; every request is authenticated independently.
type Authenticator struct {
	store     *keystore.Store
	masterKey []byte
}

// NewAuthenticator builds an Authenticator over the given store. An empty
// masterKey disables the master path entirely.
func NewAuthenticator(store *keystore.Store, masterKey string) *Authenticator {
	return &Authenticator{
		store:     store,
		masterKey: []byte(masterKey),
	}
}

// Authenticate reports whether presented is an issued API key or the
// master key. Absent or empty credentials are rejected.
func (a *Authenticator) Authenticate(presented string) bool {
	if presented == "" {
		return false
	}
	if a.store != nil && a.store.Exists(presented) {
		return true
	}
	return a.IsMaster(presented)
}

// IsMaster reports whether presented equals the master key. Issued API
// keys never pass this check; it gates privileged operations such as key
// issuance. Comparison is constant-time.
func (a *Authenticator) IsMaster(presented string) bool {
	if len(a.masterKey) == 0 || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), a.masterKey) == 1
}
