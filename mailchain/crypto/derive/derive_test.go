package derive

import (
	"bytes"
	"errors"
	"testing"

	"github.com/TheusHen/mailchain/mailchain/keys"
)

func testSeed(b byte) []byte {
	seed := make([]byte, keys.SeedSize)
	for i := range seed {
		seed[i] = b ^ byte(i*7)
	}
	return seed
}

func extended(t *testing.T, curve keys.Curve) *ExtendedPrivateKey {
	t.Helper()
	k, err := keys.PrivateKeyFromSeed(curve, testSeed(0x5a))
	if err != nil {
		t.Fatalf("PrivateKeyFromSeed: %v", err)
	}
	ext, err := FromPrivateKey(k)
	if err != nil {
		t.Fatalf("FromPrivateKey: %v", err)
	}
	return ext
}

func TestDeriveDeterministic(t *testing.T) {
	for _, curve := range []keys.Curve{keys.Ed25519, keys.Sr25519} {
		t.Run(curve.String(), func(t *testing.T) {
			ext := extended(t, curve)
			a, err := ext.Derive(Label("x"))
			if err != nil {
				t.Fatalf("Derive: %v", err)
			}
			b, err := ext.Derive(Label("x"))
			if err != nil {
				t.Fatalf("Derive: %v", err)
			}
			if !a.PrivateKey().Equal(b.PrivateKey()) {
				t.Fatalf("derivation is not deterministic")
			}

			again := extended(t, curve)
			c, _ := again.Derive(Label("x"))
			if !a.PrivateKey().PublicKey().Equal(c.PrivateKey().PublicKey()) {
				t.Fatalf("same parent bytes produced different children")
			}
		})
	}
}

func TestDeriveDomainsDoNotCollide(t *testing.T) {
	for _, curve := range []keys.Curve{keys.Ed25519, keys.Sr25519} {
		t.Run(curve.String(), func(t *testing.T) {
			ext := extended(t, curve)
			x, _ := ext.Derive(Label("x"))
			y, _ := ext.Derive(Label("y"))
			zero, _ := ext.Derive(Index(0))
			// "\x00\x00\x00\x00" as a label must not alias index 0.
			zeroLabel, _ := ext.Derive(Label("\x00\x00\x00\x00"))

			pubs := []keys.PublicKey{
				ext.PrivateKey().PublicKey(),
				x.PrivateKey().PublicKey(),
				y.PrivateKey().PublicKey(),
				zero.PrivateKey().PublicKey(),
				zeroLabel.PrivateKey().PublicKey(),
			}
			for i := range pubs {
				for j := i + 1; j < len(pubs); j++ {
					if pubs[i].Equal(pubs[j]) {
						t.Fatalf("keys %d and %d collide", i, j)
					}
				}
			}
		})
	}
}

func TestDerivePathMatchesSteps(t *testing.T) {
	ext := extended(t, keys.Ed25519)
	content, _ := ext.Derive(Label("content"))
	chunk, _ := content.Derive(Index(3))

	path, err := ext.DerivePath(Label("content"), Index(3))
	if err != nil {
		t.Fatalf("DerivePath: %v", err)
	}
	if !path.PrivateKey().Equal(chunk.PrivateKey()) {
		t.Fatalf("DerivePath differs from stepwise derivation")
	}

	same, err := ext.DerivePath()
	if err != nil {
		t.Fatalf("DerivePath(): %v", err)
	}
	if !same.PrivateKey().Equal(ext.PrivateKey()) {
		t.Fatalf("empty path must return the parent key")
	}
	same.Zero()
	if ext.PrivateKey().IsZero() || bytes.Equal(ext.PrivateKey().Bytes(), make([]byte, keys.Ed25519PrivateKeySize)) {
		t.Fatalf("zeroing the copy wiped the parent")
	}
}

func TestSr25519ChildMatchesSchnorrkel(t *testing.T) {
	ext := extended(t, keys.Sr25519)
	seg := Label("content")
	child, err := ext.Derive(seg)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}

	mini, err := ext.PrivateKey().Sr25519MiniSecret()
	if err != nil {
		t.Fatalf("Sr25519MiniSecret: %v", err)
	}
	cc, _ := seg.ChainCode()
	want, _, err := mini.HardDeriveMiniSecretKey(nil, cc)
	if err != nil {
		t.Fatalf("HardDeriveMiniSecretKey: %v", err)
	}
	enc := want.Public().Encode()
	if !bytes.Equal(child.PrivateKey().PublicKey().Bytes(), enc[:]) {
		t.Fatalf("sr25519 child public key differs from schnorrkel hard derivation")
	}
}

func TestFromPrivateKeyRejectsWeierstrassCurves(t *testing.T) {
	for _, curve := range []keys.Curve{keys.Secp256k1, keys.Secp256r1} {
		k, _ := keys.GenerateKey(curve, nil)
		if _, err := FromPrivateKey(k); !errors.Is(err, ErrNotDerivable) {
			t.Fatalf("%s: expected ErrNotDerivable, got %v", curve, err)
		}
	}
}

func TestZeroedKeyCannotDerive(t *testing.T) {
	ext := extended(t, keys.Ed25519)
	ext.Zero()
	if _, err := ext.Derive(Index(1)); !errors.Is(err, ErrKeyZeroed) {
		t.Fatalf("expected ErrKeyZeroed, got %v", err)
	}
	if _, err := (Segment{}).ChainCode(); !errors.Is(err, ErrInvalidSegment) {
		t.Fatalf("expected ErrInvalidSegment for zero segment, got %v", err)
	}
}

func TestRootKeyHelpers(t *testing.T) {
	root, err := NewRootKey(nil)
	if err != nil {
		t.Fatalf("NewRootKey: %v", err)
	}
	defer root.Zero()

	headers, err := root.HeadersKey()
	if err != nil {
		t.Fatalf("HeadersKey: %v", err)
	}
	viaExt, _ := root.ext.Derive(Label("headers"))
	if !headers.Equal(viaExt.PrivateKey()) {
		t.Fatalf("HeadersKey != derive(root, \"headers\")")
	}

	content, err := root.ContentKey()
	if err != nil {
		t.Fatalf("ContentKey: %v", err)
	}
	defer content.Zero()
	for i := uint32(0); i < 3; i++ {
		chunk, err := root.ChunkKey(i)
		if err != nil {
			t.Fatalf("ChunkKey(%d): %v", i, err)
		}
		want, _ := content.Derive(Index(i))
		if !chunk.Equal(want.PrivateKey()) {
			t.Fatalf("ChunkKey(%d) != derive(derive(root, \"content\"), %d)", i, i)
		}
	}

	recovered, err := RootKeyFromPrivateKey(root.PrivateKey())
	if err != nil {
		t.Fatalf("RootKeyFromPrivateKey: %v", err)
	}
	again, _ := recovered.HeadersKey()
	if !again.Equal(headers) {
		t.Fatalf("recovered root derived a different headers key")
	}
}

func TestWithRootKeyZeroesOnExit(t *testing.T) {
	var kept *RootKey
	errBoom := errors.New("boom")
	err := WithRootKey(nil, func(root *RootKey) error {
		kept = root
		if _, err := root.HeadersKey(); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if !bytes.Equal(kept.PrivateKey().Bytes(), make([]byte, keys.Ed25519PrivateKeySize)) {
		t.Fatalf("root key not zeroed after scope exit")
	}
	if _, err := kept.HeadersKey(); !errors.Is(err, ErrKeyZeroed) {
		t.Fatalf("expected ErrKeyZeroed after scope exit, got %v", err)
	}
}

func BenchmarkChunkKey(b *testing.B) {
	root, _ := NewRootKey(nil)
	defer root.Zero()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = root.ChunkKey(uint32(i))
	}
}
