package verify

import (
	"fmt"
	"os"
	"strings"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
)

// LoadPublicKey reads an armored PGP public key from path.
func LoadPublicKey(path string) (*crypto.Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest key: %w", err)
	}
	key, err := crypto.NewKeyFromArmored(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest key %s: %w", path, err)
	}
	return key, nil
}

// SignatureError means a checksum manifest is not signed by the
// configured key.
type SignatureError struct {
	Fingerprint string
	Err         error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("manifest signature verification failed (key %s): %v", e.Fingerprint, e.Err)
}

func (e *SignatureError) Unwrap() error { return e.Err }

// Suggestion points at the two usual causes.
func (e *SignatureError) Suggestion() string {
	return "Check TOOLSTRAP_MANIFEST_KEY is the vendor's release key, or retry in case the mirror served a partial file"
}

// DetachedSignature checks sig over data. sig may be armored or binary.
func DetachedSignature(data, sig []byte, key *crypto.Key) error {
	signature, err := crypto.NewPGPSignatureFromArmored(string(sig))
	if err != nil {
		signature = crypto.NewPGPSignature(sig)
	}
	ring, err := crypto.NewKeyRing(key)
	if err != nil {
		return fmt.Errorf("failed to create keyring: %w", err)
	}
	// Time 0 skips the signature-age check.
	if err := ring.VerifyDetached(crypto.NewPlainMessage(data), signature, 0); err != nil {
		return &SignatureError{Fingerprint: FormatFingerprint(key.GetFingerprint()), Err: err}
	}
	return nil
}

// FormatFingerprint formats a fingerprint in groups of four.
func FormatFingerprint(fp string) string {
	fp = strings.ToUpper(strings.ReplaceAll(fp, " ", ""))
	if len(fp) != 40 {
		return fp
	}
	var parts []string
	for i := 0; i < 40; i += 4 {
		parts = append(parts, fp[i:i+4])
	}
	return strings.Join(parts, " ")
}
