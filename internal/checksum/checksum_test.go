package checksum

import "testing"

func TestKey_Deterministic(t *testing.T) {
	a := Key("blog/2023-01-15-hello-world.md")
	b := Key("blog/2023-01-15-hello-world.md")
	if a != b {
		t.Fatalf("Key not deterministic: %q vs %q", a, b)
	}
	if len(a) != 40 {
		t.Errorf("len = %d, want 40", len(a))
	}
	if a == Key("blog/2023-01-15-hello-world2.md") {
		t.Error("distinct inputs produced the same key")
	}
}

func TestHMAC_KnownVector(t *testing.T) {
	// RFC 4231 test case 2.
	got := HMAC([]byte("Jefe"), []byte("what do ya want for nothing?"))
	want := "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"
	if got != want {
		t.Errorf("HMAC = %q, want %q", got, want)
	}
}
