// Package cloud streams a session's state to the crabigator cloud API over
// a WebSocket, with device identity, offline queuing, and reconnect backoff.
package cloud

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DeviceIdentity is stored at ~/.crabigator/device.json and used to sign
// every cloud API request with HMAC-SHA256.
type DeviceIdentity struct {
	DeviceID     string  `json:"device_id"`
	DeviceSecret string  `json:"device_secret"`
	Name         *string `json:"name,omitempty"`
}

// LoadOrCreateDevice reads the identity file, generating and persisting a
// new identity on first run.
func LoadOrCreateDevice() (*DeviceIdentity, error) {
	path, err := deviceConfigPath()
	if err != nil {
		return nil, err
	}

	if content, err := os.ReadFile(path); err == nil {
		var identity DeviceIdentity
		if err := json.Unmarshal(content, &identity); err != nil {
			return nil, fmt.Errorf("parse device identity: %w", err)
		}
		return &identity, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read device identity: %w", err)
	}

	identity, err := generateDevice()
	if err != nil {
		return nil, err
	}
	if err := identity.Save(); err != nil {
		return nil, err
	}
	return identity, nil
}

func generateDevice() (*DeviceIdentity, error) {
	deviceID := uuid.NewString()

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, fmt.Errorf("generate device secret: %w", err)
	}
	secret := base64.StdEncoding.EncodeToString(secretBytes)

	var name *string
	if hostname, err := os.Hostname(); err == nil {
		name = &hostname
	}

	return &DeviceIdentity{DeviceID: deviceID, DeviceSecret: secret, Name: name}, nil
}

// Save writes the identity to disk, creating ~/.crabigator if needed.
func (d *DeviceIdentity) Save() error {
	path, err := deviceConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	content, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("write device identity: %w", err)
	}
	return nil
}

func deviceConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".crabigator", "device.json"), nil
}

// SecretHash is the SHA-256 digest of the device secret. Both client and
// server sign with this hash rather than the raw secret, since the server
// only ever stores the hash.
func (d *DeviceIdentity) SecretHash() string {
	sum := sha256.Sum256([]byte(d.DeviceSecret))
	return hex.EncodeToString(sum[:])
}

// Sign computes an HMAC-SHA256 signature of message, keyed by SecretHash.
func (d *DeviceIdentity) Sign(message string) string {
	mac := hmac.New(sha256.New, []byte(d.SecretHash()))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// AuthHeaders builds the signed headers a cloud API request needs.
func (d *DeviceIdentity) AuthHeaders(method, path string) map[string]string {
	timestamp := time.Now().UnixMilli()
	message := fmt.Sprintf("%s:%s:%d", method, path, timestamp)
	return map[string]string{
		"X-Device-Id":  d.DeviceID,
		"X-Timestamp":  fmt.Sprintf("%d", timestamp),
		"X-Signature":  d.Sign(message),
	}
}
