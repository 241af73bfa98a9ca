package crypto

import "testing"

func TestHashAndCompareRoundTrip(t *testing.T) {
	passwords := []string{"pw1", "correct horse battery staple", "p"}
	for _, plain := range passwords {
		hash, err := HashPassword(plain)
		if err != nil {
			t.Fatalf("HashPassword(%q): %v", plain, err)
		}
		if err := ComparePassword(hash, plain); err != nil {
			t.Fatalf("ComparePassword rejected matching password %q: %v", plain, err)
		}
	}
}

func TestCompareRejectsWrongPassword(t *testing.T) {
	hash, err := HashPassword("pw1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := ComparePassword(hash, "pw2"); err == nil {
		t.Fatal("expected mismatch error for wrong password")
	}
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashPassword("pw1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	second, err := HashPassword("pw1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if string(first) == string(second) {
		t.Fatal("two hashes of the same password should differ")
	}
}

func TestCompareMalformedHashFailsClosed(t *testing.T) {
	malformed := [][]byte{nil, []byte(""), []byte("not-a-bcrypt-hash"), []byte("$2a$xx")}
	for _, hash := range malformed {
		if err := ComparePassword(hash, "pw1"); err == nil {
			t.Fatalf("expected error for malformed hash %q", hash)
		}
	}
}
