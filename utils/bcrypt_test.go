package utils

import "testing"

func TestTokenHashRoundTrip(t *testing.T) {
	hash, err := HashToken("s3cret-audit-token")
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}
	if err := CompareToken(string(hash), "s3cret-audit-token"); err != nil {
		t.Fatalf("CompareToken rejected the original token: %v", err)
	}
	if err := CompareToken(string(hash), "wrong-token"); err == nil {
		t.Fatalf("CompareToken accepted a wrong token")
	}
}
