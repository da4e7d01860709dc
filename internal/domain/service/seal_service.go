package service

// Sealer reversibly encrypts secrets under a passphrase for storage
type Sealer interface {
	// Seal turns plaintext into an opaque stored representation
	Seal(plaintext string) (string, error)

	// Unseal recovers the plaintext from a sealed value
	Unseal(sealed string) (string, error)
}
