package privacy

import (
	"strings"
	"testing"

	"github.com/catalogo-app/checkout-go/internal/domain"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		data domain.ClientData
	}{
		{"full", domain.ClientData{Name: "Ana Souza", Email: "ana@example.com", Phone: "+55 11 99999-0000", Address: "Rua das Flores, 123"}},
		{"name only", domain.ClientData{Name: "Ana"}},
		{"empty", domain.ClientData{}},
		{"unicode", domain.ClientData{Name: "José Ávila", Address: "Av. São João, 1º andar"}},
	}

	o := New(DefaultPassphrase, nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			encoded := o.EncryptSensitiveData(tc.data)
			got, err := o.DecryptSensitiveData(encoded)
			if err != nil {
				t.Fatalf("DecryptSensitiveData failed: %v", err)
			}
			if got != tc.data {
				t.Errorf("round trip mismatch: got %+v, want %+v", got, tc.data)
			}
		})
	}
}

func TestEncodedFormIsNotPlainJSON(t *testing.T) {
	t.Parallel()

	o := New(DefaultPassphrase, nil)
	encoded := o.EncryptSensitiveData(domain.ClientData{Name: "Ana"})
	if strings.Contains(encoded, "Ana") {
		t.Errorf("obfuscated payload leaks plaintext: %q", encoded)
	}
}

func TestFallbackStoresPlainSerializedData(t *testing.T) {
	t.Parallel()

	var flagged string
	o := New("", func(details string) { flagged = details })

	data := domain.ClientData{Name: "Ana", Email: "ana@example.com"}
	encoded := o.EncryptSensitiveData(data)

	if flagged == "" {
		t.Fatal("expected fallback to be flagged")
	}
	if !strings.Contains(encoded, "Ana") {
		t.Errorf("fallback output should be plain serialized data, got %q", encoded)
	}

	// Fallback-written data must still load.
	got, err := o.DecryptSensitiveData(encoded)
	if err != nil {
		t.Fatalf("DecryptSensitiveData of fallback data failed: %v", err)
	}
	if got != data {
		t.Errorf("fallback round trip mismatch: got %+v, want %+v", got, data)
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	t.Parallel()

	o := New(DefaultPassphrase, nil)
	if _, err := o.DecryptSensitiveData("%%% not base64, not json"); err == nil {
		t.Fatal("expected error for undecodable data")
	}
}
