package keygen

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestGenerateRSAKeyPair(t *testing.T) {
	t.Parallel()
	keyPair, err := GenerateRSAKeyPair(2048)
	if err != nil {
		t.Fatalf("GenerateRSAKeyPair(2048) failed: %v", err)
	}

	block, _ := pem.Decode(keyPair.PrivateKey)
	if block == nil {
		t.Fatal("private key is not valid PEM")
	}
	if block.Type != "RSA PRIVATE KEY" {
		t.Errorf("PEM block type = %q, want RSA PRIVATE KEY", block.Type)
	}
	if _, err := x509.ParsePKCS1PrivateKey(block.Bytes); err != nil {
		t.Errorf("private key does not parse as PKCS#1: %v", err)
	}

	if !strings.HasPrefix(string(keyPair.PublicKey), "ssh-rsa ") {
		t.Errorf("public key %q is not in authorized_keys format", keyPair.PublicKey)
	}
	if _, _, _, _, err := ssh.ParseAuthorizedKey(keyPair.PublicKey); err != nil {
		t.Errorf("public key does not parse: %v", err)
	}
}

func TestGenerateRSAKeyPair_InvalidBits(t *testing.T) {
	t.Parallel()
	for _, bits := range []int{0, -1} {
		if _, err := GenerateRSAKeyPair(bits); err == nil {
			t.Errorf("GenerateRSAKeyPair(%d) succeeded, want error", bits)
		}
	}
}

func TestGenerateRSAKeyPair_Unique(t *testing.T) {
	t.Parallel()
	a, err := GenerateRSAKeyPair(2048)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateRSAKeyPair(2048)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a.PrivateKey, b.PrivateKey) {
		t.Error("two generated key pairs are identical")
	}
}
