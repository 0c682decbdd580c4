package security

import (
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Secret#123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if hash == "Secret#123" {
		t.Fatalf("hash must not equal the plain text")
	}

	if err := CheckPassword(hash, "Secret#123"); err != nil {
		t.Fatalf("expected password to match: %v", err)
	}

	if err := CheckPassword(hash, "secret#123"); err == nil {
		t.Fatalf("expected mismatch for different password")
	}
}

func TestPasswordProblems(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		wantCount int
	}{
		{name: "seeded_admin_password", password: "Admin@123", wantCount: 0},
		{name: "too_short", password: "A@1a", wantCount: 1},
		{name: "no_symbol", password: "Admin123", wantCount: 1},
		{name: "no_digit_no_upper", password: "admin@abc", wantCount: 2},
		{name: "empty", password: "", wantCount: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PasswordProblems(tt.password)
			if len(got) != tt.wantCount {
				t.Fatalf("got %d problems (%v), want %d", len(got), got, tt.wantCount)
			}
		})
	}
}

func TestHashTokenIsDeterministicPerSecret(t *testing.T) {
	raw, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	a := HashToken([]byte("k1"), raw)
	b := HashToken([]byte("k1"), raw)
	c := HashToken([]byte("k2"), raw)

	if a != b {
		t.Fatalf("same secret should give same hash")
	}
	if a == c {
		t.Fatalf("different secrets should give different hashes")
	}
}
