// Package opsecrets reads credentials out of 1Password through the
// `op` CLI. Failures here are configuration problems (wrong vault or
// item name, `op` not signed in) and are not worth retrying.
package opsecrets

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Client resolves secret references within a single vault item. The
// vault and item names are passed in explicitly so nothing in the
// fetch path depends on ambient process state.
type Client struct {
	Vault string
	Item  string
}

func (c Client) read(ctx context.Context, ref string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "op", "read", ref)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("op read '%s': %s", ref, detail)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (c Client) Username(ctx context.Context) (string, error) {
	return c.read(ctx, fmt.Sprintf("op://%s/%s/username", c.Vault, c.Item))
}

func (c Client) Password(ctx context.Context) (string, error) {
	return c.read(ctx, fmt.Sprintf("op://%s/%s/password", c.Vault, c.Item))
}

// OTP returns the item's current one-time password, or an empty string
// when the item has no TOTP field.
func (c Client) OTP(ctx context.Context) (string, error) {
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, "op", "item", "get", c.Item, "--vault", c.Vault, "--otp")
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return "", nil
	}
	return strings.TrimSpace(stdout.String()), nil
}
