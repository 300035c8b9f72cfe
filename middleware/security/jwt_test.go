package security

import "testing"

func TestIssueAndVerify(t *testing.T) {
	token, err := IssueToken("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	userID, err := VerifyToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "alice" {
		t.Fatalf("subject = %q, want alice", userID)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	token, err := IssueToken("alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := VerifyToken(token + "x"); err == nil {
		t.Fatal("tampered token should fail")
	}
	if _, err := VerifyToken("not-a-jwt"); err == nil {
		t.Fatal("garbage token should fail")
	}
}
