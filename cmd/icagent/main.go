// Command icagent queries canisters, submits calls and reads certified
// state from the command line.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"icagent/agent"
	"icagent/hashtree"
	"icagent/identity"
	"icagent/internal/logger"
	"icagent/principal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point with error handling.
func run() error {
	cfg := parseFlags()

	if cfg.Debug {
		logger.SetLevel(slog.LevelDebug)
	}

	if cfg.CanisterID == "" {
		return fmt.Errorf("no canister given, use -canister")
	}

	canisterID, err := principal.FromText(cfg.CanisterID)
	if err != nil {
		return fmt.Errorf("parse canister principal:\n%w", err)
	}

	cfg.PrivateKey, err = loadOrGenerateKey(cfg.KeyPath)
	if err != nil {
		return fmt.Errorf("load key:\n%w", err)
	}

	a, err := newAgent(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if cfg.ReadPath != "" {
		return readPath(ctx, a, canisterID, cfg.ReadPath)
	}

	if cfg.Method == "" {
		return fmt.Errorf("no method given, use -method")
	}

	arg, err := hex.DecodeString(cfg.Arg)
	if err != nil {
		return fmt.Errorf("decode argument hex:\n%w", err)
	}

	var reply []byte
	if cfg.Call {
		reply, err = a.CallAndWait(ctx, canisterID, cfg.Method, arg)
	} else {
		reply, err = a.Query(ctx, canisterID, cfg.Method, arg)
	}
	if err != nil {
		return err
	}

	fmt.Println(hex.EncodeToString(reply))

	return nil
}

// newAgent builds the agent from the parsed configuration.
func newAgent(cfg *Config) (*agent.Agent, error) {
	host, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("parse host url:\n%w", err)
	}

	var id identity.Identity
	if cfg.PrivateKey != nil {
		id, err = identity.NewEd25519Identity(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("build identity:\n%w", err)
		}
	}

	a, err := agent.New(agent.Config{
		Host:     host,
		Identity: id,
		UseHTTP3: cfg.UseHTTP3,
	})
	if err != nil {
		return nil, err
	}

	logger.New("cli").Debug("agent ready",
		"host", cfg.Host,
		"sender", a.Sender(),
		"http3", cfg.UseHTTP3)

	return a, nil
}

// readPath fetches one certified state path and prints the value.
func readPath(ctx context.Context, a *agent.Agent, canisterID principal.Principal, rawPath string) error {
	segments := strings.Split(rawPath, "/")

	path := make([]hashtree.Label, len(segments))
	for i, segment := range segments {
		path[i] = hashtree.Label(segment)
	}

	value, err := a.ReadStatePath(ctx, canisterID, path...)
	if err != nil {
		return err
	}

	fmt.Println(hex.EncodeToString(value))

	return nil
}
