// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package factoryconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Config represents the factory configuration.
type Config struct {
	Owner          string          `yaml:"owner"`
	FactoryAddress string          `yaml:"factoryAddress"`
	Authorized     []string        `yaml:"authorized,omitempty"`
	RateLimits     RateLimitConfig `yaml:"rateLimits"`
	Ledger         LedgerConfig    `yaml:"ledger"`
	Contracts      []string        `yaml:"contracts,omitempty"` // Addresses always treated as contracts
}

// RateLimitConfig holds the per-user enrollment caps.
type RateLimitConfig struct {
	Weekly  int `yaml:"weekly"`
	Monthly int `yaml:"monthly"`
}

// LedgerConfig holds change-feed purge settings.
type LedgerConfig struct {
	PurgeBatchSize int           `yaml:"purgeBatchSize"`
	Retention      time.Duration `yaml:"retention"`
}

// LoadConfig loads factory configuration from a YAML file.
// Supports environment variable expansion in the form ${VAR_NAME} or ${VAR_NAME:default}.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses and validates factory configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration for common errors.
func (c *Config) Validate() error {
	if err := checkAddress("owner", c.Owner); err != nil {
		return err
	}
	if err := checkAddress("factoryAddress", c.FactoryAddress); err != nil {
		return err
	}
	if strings.EqualFold(c.Owner, c.FactoryAddress) {
		return fmt.Errorf("owner and factoryAddress must differ")
	}

	seen := make(map[common.Address]bool)
	for i, a := range c.Authorized {
		if err := checkAddress(fmt.Sprintf("authorized[%d]", i), a); err != nil {
			return err
		}
		addr := common.HexToAddress(a)
		if seen[addr] {
			return fmt.Errorf("duplicate authorized address: %s", a)
		}
		seen[addr] = true
	}
	for i, a := range c.Contracts {
		if err := checkAddress(fmt.Sprintf("contracts[%d]", i), a); err != nil {
			return err
		}
	}

	if c.RateLimits.Weekly < 0 || c.RateLimits.Monthly < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if c.RateLimits.Weekly > 0 && c.RateLimits.Monthly > 0 && c.RateLimits.Weekly > c.RateLimits.Monthly {
		return fmt.Errorf("weekly rate limit %d exceeds monthly %d", c.RateLimits.Weekly, c.RateLimits.Monthly)
	}
	if c.Ledger.PurgeBatchSize < 0 {
		return fmt.Errorf("ledger purgeBatchSize must not be negative")
	}
	if c.Ledger.Retention < 0 {
		return fmt.Errorf("ledger retention must not be negative")
	}

	return nil
}

// OwnerAddress returns the parsed owner address.
func (c *Config) OwnerAddress() common.Address {
	return common.HexToAddress(c.Owner)
}

// Factory returns the parsed factory account address.
func (c *Config) Factory() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// AuthorizedAddresses returns the parsed authorized set.
func (c *Config) AuthorizedAddresses() []common.Address {
	return toAddresses(c.Authorized)
}

// ContractAddresses returns the parsed static contract list.
func (c *Config) ContractAddresses() []common.Address {
	return toAddresses(c.Contracts)
}

func toAddresses(in []string) []common.Address {
	out := make([]common.Address, 0, len(in))
	for _, a := range in {
		out = append(out, common.HexToAddress(a))
	}
	return out
}

func checkAddress(field, value string) error {
	if !common.IsHexAddress(value) {
		return fmt.Errorf("%s: %q is not a hex address", field, value)
	}
	if common.HexToAddress(value) == (common.Address{}) {
		return fmt.Errorf("%s: zero address", field)
	}
	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
