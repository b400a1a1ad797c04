package reading

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"kindlestats/lib/configutil"
)

// Config names where the account credentials live in 1Password. The
// values are handed to the credential store client explicitly, nothing
// else reads them.
type Config struct {
	OpVault string `json:"op_vault"`
	OpItem  string `json:"op_item"`
}

// LoadConfig reads the config file, prompting on in/out for any value
// still missing and persisting the answers back so the next run is
// non-interactive. A completely absent file is fine, it just means
// every value gets prompted.
func LoadConfig(path string, in io.Reader, out io.Writer) (Config, error) {
	cfg, err := configutil.Read[Config](path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}

	reader := bufio.NewReader(in)
	changed := false

	if cfg.OpVault == "" {
		cfg.OpVault, err = prompt(reader, out, "1Password vault name: ")
		if err != nil {
			return Config{}, err
		}
		changed = true
	}
	if cfg.OpItem == "" {
		cfg.OpItem, err = prompt(reader, out, "1Password item name for Amazon: ")
		if err != nil {
			return Config{}, err
		}
		changed = true
	}

	if changed {
		contents, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return Config{}, err
		}
		if err := os.WriteFile(path, append(contents, '\n'), 0644); err != nil {
			return Config{}, err
		}
		fmt.Fprintf(out, "config saved to %s\n", path)
	}
	return cfg, nil
}

func prompt(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	answer := strings.TrimSpace(line)
	if answer == "" {
		return "", fmt.Errorf("no value given for %q", strings.TrimSuffix(label, ": "))
	}
	return answer, nil
}
