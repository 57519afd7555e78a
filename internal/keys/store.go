package keys

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"relay/pkg/platform/sentinel"
)

const (
	secretKeyMode = 0o600
	publicKeyMode = 0o644
)

// Provisioned is the outcome of Provision.
type Provisioned struct {
	// AlreadyGenerated is set when a secret key existed and nothing was written.
	AlreadyGenerated bool
	Secret           *SecretKey
	Public           *PublicKey
}

// Provision generates and persists a keypair unless a secret key already
// exists at secretPath. The existing key is authoritative and is never touched.
func Provision(secretPath, publicPath, kid string) (*Provisioned, error) {
	exists, err := fileExists(secretPath)
	if err != nil {
		return nil, err
	}
	if exists {
		return &Provisioned{AlreadyGenerated: true}, nil
	}

	sk, pk, err := Generate(kid)
	if err != nil {
		return nil, err
	}
	if err := Persist(sk, pk, secretPath, publicPath); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return &Provisioned{AlreadyGenerated: true}, nil
		}
		return nil, err
	}
	return &Provisioned{Secret: sk, Public: pk}, nil
}

// Persist writes both keys as JSON. The secret key file is created exclusively
// with mode 0600; an existing secret key yields sentinel.ErrAlreadyExists.
func Persist(sk *SecretKey, pk *PublicKey, secretPath, publicPath string) error {
	secretJSON, err := json.Marshal(sk)
	if err != nil {
		return fmt.Errorf("encode secret key: %w", err)
	}
	publicJSON, err := json.Marshal(pk)
	if err != nil {
		return fmt.Errorf("encode public key: %w", err)
	}

	f, err := os.OpenFile(secretPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, secretKeyMode)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("secret key %s: %w", secretPath, sentinel.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("create secret key file: %w", err)
	}
	if _, err := f.Write(secretJSON); err != nil {
		f.Close()
		os.Remove(secretPath)
		return fmt.Errorf("write secret key file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(secretPath)
		return fmt.Errorf("close secret key file: %w", err)
	}

	if err := os.WriteFile(publicPath, publicJSON, publicKeyMode); err != nil {
		// Without its public half the secret key would block every later provisioning run.
		os.Remove(secretPath)
		return fmt.Errorf("write public key file: %w", err)
	}
	return nil
}

// LoadPublic reads a persisted public key.
func LoadPublic(path string) (*PublicKey, error) {
	var pk PublicKey
	if err := readJSON(path, &pk); err != nil {
		return nil, fmt.Errorf("load public key: %w", err)
	}
	if pk.Kid == "" || pk.N == "" || pk.E == "" {
		return nil, fmt.Errorf("load public key: %w: missing fields", ErrMalformedKey)
	}
	return &pk, nil
}

// LoadSecret reads a persisted secret key.
func LoadSecret(path string) (*SecretKey, error) {
	var sk SecretKey
	if err := readJSON(path, &sk); err != nil {
		return nil, fmt.Errorf("load secret key: %w", err)
	}
	return &sk, nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, sentinel.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedKey, err)
	}
	return nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}
