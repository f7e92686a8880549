package vault

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	v, err := New("correct horse battery staple", "salt-v1")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}

	secrets := []string{
		"SA3W53XXG64ITFFIYQSBIJDG26LJTYF7XSTFSYFNLRSDPKYJYZCPRVPI",
		"",
		"short",
		"unicode ✓ secret",
	}

	for _, secret := range secrets {
		sealed, err := v.Seal(secret)
		if err != nil {
			t.Fatalf("seal %q: %v", secret, err)
		}
		opened, err := v.Open(sealed)
		if err != nil {
			t.Fatalf("open %q: %v", secret, err)
		}
		if opened != secret {
			t.Fatalf("round trip mismatch: got %q want %q", opened, secret)
		}
	}
}

func TestSealProducesFreshNonce(t *testing.T) {
	v, err := New("passphrase", "salt")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}

	a, _ := v.Seal("same plaintext")
	b, _ := v.Seal("same plaintext")
	if bytes.Equal(a, b) {
		t.Fatal("expected distinct ciphertexts for repeated seals")
	}
}

func TestOpenWithWrongKey(t *testing.T) {
	v1, err := New("key one", "salt")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	v2, err := New("key two", "salt")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}

	sealed, err := v1.Seal("secret material")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	if _, err := v2.Open(sealed); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("expected ErrDecryptFailed, got %v", err)
	}
}

func TestOpenTruncatedCiphertext(t *testing.T) {
	v, err := New("passphrase", "salt")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}

	if _, err := v.Open([]byte{0x01, 0x02}); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("expected ErrDecryptFailed for truncated input, got %v", err)
	}
}

func TestNewRequiresPassphrase(t *testing.T) {
	if _, err := New("", "salt"); err == nil {
		t.Fatal("expected error for empty passphrase")
	}
}
