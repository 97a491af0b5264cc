package keys

import (
	"errors"
	"testing"
)

func TestEncodeDecodePublicKey(t *testing.T) {
	tags := map[Curve]byte{
		Ed25519:   TagEd25519,
		Secp256k1: TagSecp256k1,
		Secp256r1: TagSecp256r1,
		Sr25519:   TagSr25519,
	}
	for _, curve := range allCurves {
		t.Run(curve.String(), func(t *testing.T) {
			k, err := GenerateKey(curve, nil)
			if err != nil {
				t.Fatalf("GenerateKey: %v", err)
			}
			enc, err := EncodePublicKey(k.PublicKey())
			if err != nil {
				t.Fatalf("EncodePublicKey: %v", err)
			}
			if enc[0] != tags[curve] {
				t.Fatalf("tag = 0x%02x, want 0x%02x", enc[0], tags[curve])
			}
			dec, err := DecodePublicKey(enc)
			if err != nil {
				t.Fatalf("DecodePublicKey: %v", err)
			}
			if !dec.Equal(k.PublicKey()) {
				t.Fatalf("decoded key mismatch")
			}

			parsed, err := ParseBase58PublicKey(k.PublicKey().Base58())
			if err != nil {
				t.Fatalf("ParseBase58PublicKey: %v", err)
			}
			if !parsed.Equal(k.PublicKey()) {
				t.Fatalf("base58 round trip mismatch")
			}
		})
	}
}

func TestEncodeDecodePrivateKey(t *testing.T) {
	for _, curve := range allCurves {
		t.Run(curve.String(), func(t *testing.T) {
			k, _ := GenerateKey(curve, nil)
			enc, err := EncodePrivateKey(k)
			if err != nil {
				t.Fatalf("EncodePrivateKey: %v", err)
			}
			dec, err := DecodePrivateKey(enc)
			if err != nil {
				t.Fatalf("DecodePrivateKey: %v", err)
			}
			if !dec.Equal(k) || !dec.PublicKey().Equal(k.PublicKey()) {
				t.Fatalf("decoded key mismatch")
			}
		})
	}
}

func TestDecodePublicKeyErrors(t *testing.T) {
	k, _ := GenerateKey(Ed25519, nil)
	enc, _ := EncodePublicKey(k.PublicKey())

	if _, err := DecodePublicKey(nil); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expected ErrUnderflow for empty input, got %v", err)
	}
	if _, err := DecodePublicKey(enc[:10]); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expected ErrUnderflow for short input, got %v", err)
	}

	unknown := append([]byte{0x42}, enc[1:]...)
	if _, err := DecodePublicKey(unknown); !errors.Is(err, ErrUnsupportedCurve) {
		t.Fatalf("expected ErrUnsupportedCurve, got %v", err)
	}

	long := append(append([]byte(nil), enc...), 0x00)
	if _, err := DecodePublicKey(long); !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Fatalf("expected ErrInvalidKeyMaterial for trailing byte, got %v", err)
	}
}

func TestCurveTagsStable(t *testing.T) {
	for tag, want := range map[byte]Curve{0xe1: Secp256k1, 0xe2: Ed25519, 0xe3: Sr25519, 0xe4: Secp256r1} {
		got, err := CurveFromTag(tag)
		if err != nil {
			t.Fatalf("CurveFromTag(0x%02x): %v", tag, err)
		}
		if got != want {
			t.Fatalf("CurveFromTag(0x%02x) = %s, want %s", tag, got, want)
		}
	}
}
