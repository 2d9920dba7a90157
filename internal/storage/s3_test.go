package storage

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptGCMRoundTrip(t *testing.T) {
	plain := []byte("archive bytes go here")
	enc, err := encryptGCM(plain, "secret")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(enc, []byte(gcmMagic)) {
		t.Fatalf("encrypted object missing magic prefix")
	}
	if bytes.Contains(enc, plain) {
		t.Fatal("ciphertext contains plaintext")
	}

	dec, err := decryptGCM(enc, "secret")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dec, plain) {
		t.Errorf("round trip mismatch: got %q", dec)
	}
}

func TestDecryptGCMWrongPassword(t *testing.T) {
	enc, err := encryptGCM([]byte("data"), "right")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := decryptGCM(enc, "wrong"); err == nil {
		t.Error("decryption with wrong password should fail")
	}
}

func TestParseRef(t *testing.T) {
	bucket, key, err := ParseRef("s3://my-bucket/results/doc.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "my-bucket" || key != "results/doc.pdf" {
		t.Errorf("got %s/%s", bucket, key)
	}

	for _, bad := range []string{"s3://", "s3://bucketonly", "s3://bucket/"} {
		if _, _, err := ParseRef(bad); err == nil {
			t.Errorf("ParseRef(%q) should fail", bad)
		}
	}
}
