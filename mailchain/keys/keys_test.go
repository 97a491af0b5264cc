package keys

import (
	"bytes"
	"errors"
	"testing"
)

var allCurves = []Curve{Ed25519, Secp256k1, Secp256r1, Sr25519}

func seedBytes(b byte) []byte {
	seed := make([]byte, SeedSize)
	for i := range seed {
		seed[i] = b + byte(i)
	}
	return seed
}

func TestGenerateKeyPublicKeyStable(t *testing.T) {
	for _, curve := range allCurves {
		t.Run(curve.String(), func(t *testing.T) {
			k, err := GenerateKey(curve, nil)
			if err != nil {
				t.Fatalf("GenerateKey: %v", err)
			}
			again, err := NewPrivateKey(curve, k.Bytes())
			if err != nil {
				t.Fatalf("NewPrivateKey: %v", err)
			}
			if !again.PublicKey().Equal(k.PublicKey()) {
				t.Fatalf("public key not derived deterministically")
			}
			if len(k.PublicKey().Bytes()) != curve.publicKeySize() {
				t.Fatalf("unexpected public key length %d", len(k.PublicKey().Bytes()))
			}
		})
	}
}

func TestPrivateKeyFromSeedDeterministic(t *testing.T) {
	for _, curve := range allCurves {
		t.Run(curve.String(), func(t *testing.T) {
			a, err := PrivateKeyFromSeed(curve, seedBytes(1))
			if err != nil {
				t.Fatalf("PrivateKeyFromSeed: %v", err)
			}
			b, err := PrivateKeyFromSeed(curve, seedBytes(1))
			if err != nil {
				t.Fatalf("PrivateKeyFromSeed: %v", err)
			}
			if !a.Equal(b) || !a.PublicKey().Equal(b.PublicKey()) {
				t.Fatalf("same seed produced different keys")
			}
			c, _ := PrivateKeyFromSeed(curve, seedBytes(2))
			if a.PublicKey().Equal(c.PublicKey()) {
				t.Fatalf("different seeds produced the same key")
			}
		})
	}
}

func TestNewKeyRejectsBadMaterial(t *testing.T) {
	cases := []struct {
		name  string
		build func() error
	}{
		{"ed25519 short public", func() error { _, err := NewPublicKey(Ed25519, make([]byte, 31)); return err }},
		{"ed25519 private with wrong public half", func() error {
			k, _ := PrivateKeyFromSeed(Ed25519, seedBytes(3))
			raw := k.Bytes()
			raw[63] ^= 0xff
			_, err := NewPrivateKey(Ed25519, raw)
			return err
		}},
		{"secp256k1 zero scalar", func() error { _, err := NewPrivateKey(Secp256k1, make([]byte, 32)); return err }},
		{"secp256k1 overflow scalar", func() error { _, err := NewPrivateKey(Secp256k1, bytes.Repeat([]byte{0xff}, 32)); return err }},
		{"secp256k1 not on curve", func() error {
			raw := make([]byte, 33)
			raw[0] = 0x02
			for i := 1; i < len(raw); i++ {
				raw[i] = 0xff
			}
			_, err := NewPublicKey(Secp256k1, raw)
			return err
		}},
		{"secp256r1 zero scalar", func() error { _, err := NewPrivateKey(Secp256r1, make([]byte, 32)); return err }},
		{"secp256r1 bad prefix", func() error { _, err := NewPublicKey(Secp256r1, make([]byte, 33)); return err }},
		{"sr25519 long private", func() error { _, err := NewPrivateKey(Sr25519, make([]byte, 64)); return err }},
		{"unknown curve", func() error { _, err := NewPublicKey(Curve(9), make([]byte, 32)); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.build(); !errors.Is(err, ErrInvalidKeyMaterial) {
				t.Fatalf("expected ErrInvalidKeyMaterial, got %v", err)
			}
		})
	}
}

func TestSignVerify(t *testing.T) {
	for _, curve := range allCurves {
		t.Run(curve.String(), func(t *testing.T) {
			k, err := GenerateKey(curve, nil)
			if err != nil {
				t.Fatalf("GenerateKey: %v", err)
			}
			msg := []byte("hello mailchain")
			sig, err := k.Sign(msg)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}
			if !k.PublicKey().Verify(msg, sig) {
				t.Fatalf("signature verification failed")
			}
			if k.PublicKey().Verify([]byte("tampered"), sig) {
				t.Fatalf("expected verification to fail for tampered message")
			}
			other, _ := GenerateKey(curve, nil)
			if other.PublicKey().Verify(msg, sig) {
				t.Fatalf("expected verification to fail with different public key")
			}
			if k.PublicKey().Verify(msg, sig[:len(sig)-1]) {
				t.Fatalf("expected verification to fail for truncated signature")
			}
		})
	}
}

func TestSr25519SignaturesAreRandomized(t *testing.T) {
	k, err := GenerateKey(Sr25519, nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	msg := []byte("same message")
	a, _ := k.Sign(msg)
	b, _ := k.Sign(msg)
	if !k.PublicKey().Verify(msg, a) || !k.PublicKey().Verify(msg, b) {
		t.Fatalf("both signatures must verify")
	}
}

func TestZeroWipesPrivateKey(t *testing.T) {
	k, _ := GenerateKey(Ed25519, nil)
	k.Zero()
	if !bytes.Equal(k.Bytes(), make([]byte, Ed25519PrivateKeySize)) {
		t.Fatalf("expected zeroed key bytes")
	}
}

func TestIDStable(t *testing.T) {
	k, _ := GenerateKey(Ed25519, nil)
	id1 := k.PublicKey().ID()
	id2 := IDFromPublicKey(k.PublicKey())
	if id1 != id2 {
		t.Fatalf("ID mismatch")
	}
	parsed, err := ParseIDHex(id1.String())
	if err != nil {
		t.Fatalf("ParseIDHex: %v", err)
	}
	if parsed != id1 {
		t.Fatalf("ParseIDHex mismatch")
	}
}

func BenchmarkEd25519Sign(b *testing.B) {
	k, _ := GenerateKey(Ed25519, nil)
	msg := make([]byte, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = k.Sign(msg)
	}
}
