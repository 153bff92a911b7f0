package ports

// SecurityPort seals secrets (aggregator access tokens) before they are stored.
type SecurityPort interface {
	// Seal encrypts a plaintext and returns a printable ciphertext.
	Seal(plaintext string) (string, error)

	// Open reverses Seal.
	Open(sealed string) (string, error)
}
