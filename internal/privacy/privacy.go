// Package privacy implements the reversible obfuscation applied to draft
// client data before it reaches local storage.
//
// This is NOT a confidentiality control. The scheme is a fixed-passphrase
// XOR keystream kept for compatibility with drafts already written by the
// original client; anything that can read the binary can decode the data.
// Real deployments need an authenticated cipher (e.g. AES-GCM) with a
// securely derived key, but swapping the algorithm silently would make
// every existing draft undecodable, so it stays behind this interface.
package privacy

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/catalogo-app/checkout-go/internal/domain"
)

// DefaultPassphrase is the fixed keystream seed used when none is configured.
const DefaultPassphrase = "catalogo-checkout-2024"

// FallbackFunc is invoked whenever obfuscation degrades to returning the
// plain serialized data, a confidentiality regression that callers must
// record in the audit trail.
type FallbackFunc func(details string)

// Obfuscator encodes and decodes sensitive client data.
type Obfuscator struct {
	passphrase string
	onFallback FallbackFunc
}

// New creates an Obfuscator. An empty passphrase disables the keystream and
// triggers the fallback path on every encode.
func New(passphrase string, onFallback FallbackFunc) *Obfuscator {
	return &Obfuscator{passphrase: passphrase, onFallback: onFallback}
}

// EncryptSensitiveData serializes and obfuscates client data for storage.
// If the obfuscation step cannot run, it falls back to the unobfuscated
// serialized data and reports the regression through the fallback hook.
func (o *Obfuscator) EncryptSensitiveData(data domain.ClientData) string {
	raw, err := json.Marshal(data)
	if err != nil {
		// ClientData is a plain struct; this cannot realistically happen.
		o.fallback(fmt.Sprintf("serialize client data: %v", err))
		return ""
	}
	if o.passphrase == "" {
		o.fallback("empty obfuscation passphrase, storing client data in the clear")
		return string(raw)
	}
	return base64.StdEncoding.EncodeToString(o.keystream(raw))
}

// DecryptSensitiveData reverses EncryptSensitiveData. Data written by the
// fallback path (plain JSON) is accepted as-is.
func (o *Obfuscator) DecryptSensitiveData(encoded string) (domain.ClientData, error) {
	var data domain.ClientData

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || o.passphrase == "" {
		if jsonErr := json.Unmarshal([]byte(encoded), &data); jsonErr == nil {
			return data, nil
		}
		if err == nil {
			err = fmt.Errorf("unobfuscated client data is not valid JSON")
		}
		return domain.ClientData{}, fmt.Errorf("decode client data: %w", err)
	}

	if err := json.Unmarshal(o.keystream(raw), &data); err != nil {
		return domain.ClientData{}, fmt.Errorf("parse client data: %w", err)
	}
	return data, nil
}

// keystream XORs b against the repeating passphrase. Applying it twice
// yields the original bytes.
func (o *Obfuscator) keystream(b []byte) []byte {
	key := []byte(o.passphrase)
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[i] ^ key[i%len(key)]
	}
	return out
}

func (o *Obfuscator) fallback(details string) {
	if o.onFallback != nil {
		o.onFallback(details)
	}
}
