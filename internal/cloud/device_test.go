package cloud

import "testing"

func TestGenerateDeviceProducesUniqueSecret(t *testing.T) {
	a, err := generateDevice()
	if err != nil {
		t.Fatalf("generateDevice: %v", err)
	}
	b, err := generateDevice()
	if err != nil {
		t.Fatalf("generateDevice: %v", err)
	}
	if a.DeviceID == b.DeviceID {
		t.Fatal("expected distinct device ids")
	}
	if a.DeviceSecret == b.DeviceSecret {
		t.Fatal("expected distinct device secrets")
	}
}

func TestSecretHashIsStableHexSHA256(t *testing.T) {
	d, err := generateDevice()
	if err != nil {
		t.Fatalf("generateDevice: %v", err)
	}
	hash := d.SecretHash()
	if len(hash) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(hash))
	}
	if hash != d.SecretHash() {
		t.Fatal("expected SecretHash to be deterministic")
	}
}

func TestSignProducesHexHMAC(t *testing.T) {
	d, err := generateDevice()
	if err != nil {
		t.Fatalf("generateDevice: %v", err)
	}
	sig := d.Sign("test message")
	if len(sig) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(sig))
	}
	if sig != d.Sign("test message") {
		t.Fatal("expected Sign to be deterministic for the same message")
	}
	if sig == d.Sign("different message") {
		t.Fatal("expected different messages to sign differently")
	}
}

func TestAuthHeadersIncludesDeviceIDAndSignature(t *testing.T) {
	d, err := generateDevice()
	if err != nil {
		t.Fatalf("generateDevice: %v", err)
	}
	headers := d.AuthHeaders("POST", "/api/sessions")
	if headers["X-Device-Id"] != d.DeviceID {
		t.Fatalf("expected device id header, got %q", headers["X-Device-Id"])
	}
	if headers["X-Signature"] == "" {
		t.Fatal("expected non-empty signature header")
	}
	if headers["X-Timestamp"] == "" {
		t.Fatal("expected non-empty timestamp header")
	}
}
