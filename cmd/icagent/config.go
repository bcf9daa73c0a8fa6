package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"
)

// Config holds the command-line configuration.
type Config struct {
	// Host is the platform endpoint URL.
	Host string

	// CanisterID is the textual principal of the target canister.
	CanisterID string

	// Method is the canister method to invoke.
	Method string

	// Arg is the hex-encoded argument blob.
	Arg string

	// Call submits an update call instead of a query.
	Call bool

	// ReadPath reads a certified state path instead of calling, given
	// as slash-separated labels.
	ReadPath string

	// KeyPath is the path to the Ed25519 private key file. Empty means
	// the anonymous identity.
	KeyPath string

	// PrivateKey is the loaded signing key, nil for anonymous.
	PrivateKey ed25519.PrivateKey

	// UseHTTP3 switches the transport onto HTTP/3.
	UseHTTP3 bool

	// Debug enables debug logging.
	Debug bool
}

// parseFlags parses command-line flags into Config.
func parseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Host, "host", "https://icp-api.io", "Platform endpoint URL")
	flag.StringVar(&cfg.CanisterID, "canister", "", "Target canister principal")
	flag.StringVar(&cfg.Method, "method", "", "Method name to invoke")
	flag.StringVar(&cfg.Arg, "arg", "", "Hex-encoded argument")
	flag.BoolVar(&cfg.Call, "call", false, "Submit an update call and wait for the certified reply")
	flag.StringVar(&cfg.ReadPath, "read-path", "", "Read a certified state path (slash-separated labels)")
	flag.StringVar(&cfg.KeyPath, "key", "", "Ed25519 private key path (anonymous if empty, generates new if missing)")
	flag.BoolVar(&cfg.UseHTTP3, "http3", false, "Use an HTTP/3 transport")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	flag.Parse()

	return cfg
}

// loadOrGenerateKey reads a hex-encoded Ed25519 seed from path,
// creating one when the file does not exist.
func loadOrGenerateKey(path string) (ed25519.PrivateKey, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err == nil {
		seed, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("decode key file %s:\n%w", path, err)
		}
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("key file %s holds %d bytes, want %d", path, len(seed), ed25519.SeedSize)
		}

		return ed25519.NewKeyFromSeed(seed), nil
	}

	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read key file %s:\n%w", path, err)
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key:\n%w", err)
	}

	encoded := hex.EncodeToString(key.Seed()) + "\n"
	if err := os.WriteFile(path, []byte(encoded), 0600); err != nil {
		return nil, fmt.Errorf("write key file %s:\n%w", path, err)
	}

	return key, nil
}
