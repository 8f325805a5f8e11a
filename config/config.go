/*
Package config describes networks, accounts and tooling settings of the FundMe
suite. Configuration is read from a YAML file (fundme.yml by default) with
${VAR} references expanded from the environment.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/config/netmode"
	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is the configuration file used when none is specified.
	DefaultPath = "fundme.yml"

	// NeotestNetwork is the name of in-memory network every test creates
	// from scratch.
	NeotestNetwork = "neotest"
	// LocalhostNetwork is the name of locally running private network.
	LocalhostNetwork = "localhost"
	// TestNetwork is the name of public test network.
	TestNetwork = "testnet"

	// DefaultTestTimeout limits the whole test run.
	DefaultTestTimeout = 500 * time.Second
	// DefaultRPCTimeout limits a single RPC operation.
	DefaultRPCTimeout = time.Minute
)

// Environment variables read by the suite.
const (
	EnvTestNetRPC     = "RPC_URL_SEPOLIA"
	EnvTestNetKey     = "PRIVATE_KEY_SEPOLIA"
	EnvExplorerKey    = "ETHERSCAN_API_KEY"
	EnvCoinMarketCap  = "COINMARKETCAP_API_KEY"
	EnvNetworkName    = "FUNDME_NETWORK"
	defaultAccountKey = "default"
)

// ErrUnknownNetwork is returned when requested network is not configured.
var ErrUnknownNetwork = errors.New("unknown network")

type (
	// Config is the top-level configuration of the suite.
	Config struct {
		DefaultNetwork    string                  `yaml:"DefaultNetwork"`
		Networks          map[string]Network      `yaml:"Networks"`
		Compilers         []Compiler              `yaml:"Compilers"`
		NamedAccounts     map[string]NamedAccount `yaml:"NamedAccounts"`
		DevelopmentChains []string                `yaml:"DevelopmentChains"`
		Explorer          Explorer                `yaml:"Explorer"`
		GasReporter       GasReporter             `yaml:"GasReporter"`
		Test              Test                    `yaml:"Test"`
		Logger            Logger                  `yaml:"Logger"`
	}

	// Network describes a single target network.
	Network struct {
		// URL is the RPC endpoint. It's empty for neotest network.
		URL   string        `yaml:"URL"`
		Magic netmode.Magic `yaml:"Magic"`
		// Accounts are private keys in WIF or hex form.
		Accounts []string `yaml:"Accounts"`
		// PriceFeed is the GAS/USD price feed contract address (LE hex
		// script hash). Development networks deploy their own mock.
		PriceFeed string `yaml:"PriceFeed"`
		// Timeout limits RPC operations, including waiting for
		// transactions.
		Timeout time.Duration `yaml:"Timeout"`
	}

	// Compiler describes NeoGo compiler version used to build contracts.
	Compiler struct {
		Version string `yaml:"Version"`
	}

	// NamedAccount maps network (name or magic) to the account index.
	NamedAccount map[string]int

	// Explorer holds block explorer settings used for verification.
	Explorer struct {
		URL    string `yaml:"URL"`
		APIKey string `yaml:"APIKey"`
	}

	// GasReporter describes fee report produced by tests.
	GasReporter struct {
		Enabled          bool   `yaml:"Enabled"`
		OutputFile       string `yaml:"OutputFile"`
		NoColors         bool   `yaml:"NoColors"`
		Currency         string `yaml:"Currency"`
		Token            string `yaml:"Token"`
		CoinMarketCapKey string `yaml:"CoinMarketCapKey"`
	}

	// Test holds test run settings.
	Test struct {
		Timeout time.Duration `yaml:"Timeout"`
	}

	// Logger describes logging settings.
	Logger struct {
		Level    string `yaml:"Level"`
		Encoding string `yaml:"Encoding"`
	}
)

// Default returns configuration used when no file is present.
func Default() Config {
	return Config{
		DefaultNetwork: NeotestNetwork,
		Networks: map[string]Network{
			NeotestNetwork: {
				Magic: netmode.UnitTestNet,
			},
			LocalhostNetwork: {
				URL:     "http://127.0.0.1:30333",
				Magic:   netmode.PrivNet,
				Timeout: DefaultRPCTimeout,
			},
		},
		Compilers:         []Compiler{{Version: "0.102.0"}},
		NamedAccounts:     map[string]NamedAccount{"deployer": {defaultAccountKey: 0}},
		DevelopmentChains: []string{NeotestNetwork, LocalhostNetwork},
		GasReporter: GasReporter{
			OutputFile: "gas-report.txt",
			Currency:   "USD",
			Token:      "GAS",
		},
		Test:   Test{Timeout: DefaultTestTimeout},
		Logger: Logger{Level: "info", Encoding: "console"},
	}
}

// Load reads configuration from the given file on top of Default. ${VAR}
// references are expanded from the environment before parsing.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// LoadOrDefault is like Load, but returns Default (with environment
// overrides applied) if the file does not exist.
func LoadOrDefault(path string) (Config, error) {
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		c = Default()
		c.applyEnv()
		return c, c.Validate()
	}

	return c, err
}

// Parse parses configuration from YAML data.
func Parse(data []byte) (Config, error) {
	c := Default()

	err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &c)
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	c.applyEnv()

	return c, c.Validate()
}

// applyEnv fills settings which are left empty in the file from the
// well-known environment variables.
func (c *Config) applyEnv() {
	if c.Explorer.APIKey == "" {
		c.Explorer.APIKey = os.Getenv(EnvExplorerKey)
	}

	if c.GasReporter.CoinMarketCapKey == "" {
		c.GasReporter.CoinMarketCapKey = os.Getenv(EnvCoinMarketCap)
	}

	if name := os.Getenv(EnvNetworkName); name != "" {
		c.DefaultNetwork = name
	}

	if c.Test.Timeout <= 0 {
		c.Test.Timeout = DefaultTestTimeout
	}
}

// Validate checks configuration consistency.
func (c Config) Validate() error {
	if _, ok := c.Networks[c.DefaultNetwork]; !ok {
		return fmt.Errorf("default network '%s': %w", c.DefaultNetwork, ErrUnknownNetwork)
	}

	if len(c.Compilers) == 0 {
		return errors.New("no compilers configured")
	}

	return nil
}

// Network returns settings of the named network. Empty name means the
// default one.
func (c Config) Network(name string) (Network, error) {
	if name == "" {
		name = c.DefaultNetwork
	}

	n, ok := c.Networks[name]
	if !ok {
		return Network{}, fmt.Errorf("network '%s': %w", name, ErrUnknownNetwork)
	}

	return n, nil
}

// IsDevelopment checks whether the named network is a development chain
// where mocks are deployed and unit tests run.
func (c Config) IsDevelopment(name string) bool {
	for i := range c.DevelopmentChains {
		if c.DevelopmentChains[i] == name {
			return true
		}
	}

	return false
}

// CompilerVersion returns the primary compiler version.
func (c Config) CompilerVersion() string {
	return c.Compilers[0].Version
}

// Account returns index of the named account role (e.g. "deployer") on the
// named network.
func (c Config) Account(role string, network string) (int, error) {
	acc, ok := c.NamedAccounts[role]
	if !ok {
		return 0, fmt.Errorf("unknown named account '%s'", role)
	}

	if network == "" {
		network = c.DefaultNetwork
	}

	n, err := c.Network(network)
	if err != nil {
		return 0, err
	}

	return acc.Resolve(network, n.Magic)
}

// Resolve returns account index for the network. Network name takes
// precedence over network magic, "default" entry is used if neither is
// present.
func (a NamedAccount) Resolve(network string, magic netmode.Magic) (int, error) {
	for _, k := range []string{network, strconv.FormatUint(uint64(magic), 10), defaultAccountKey} {
		if i, ok := a[k]; ok {
			if i < 0 {
				return 0, fmt.Errorf("negative account index %d", i)
			}
			return i, nil
		}
	}

	return 0, fmt.Errorf("no account for network '%s'", network)
}

// PrivateKeys decodes network accounts. Each of them is either WIF or hex
// encoded private key. Empty entries (e.g. unset environment variables) are
// skipped.
func (n Network) PrivateKeys() ([]*keys.PrivateKey, error) {
	res := make([]*keys.PrivateKey, 0, len(n.Accounts))

	for i := range n.Accounts {
		if n.Accounts[i] == "" {
			continue
		}

		k, err := keys.NewPrivateKeyFromWIF(n.Accounts[i])
		if err != nil {
			k, err = keys.NewPrivateKeyFromHex(n.Accounts[i])
			if err != nil {
				return nil, fmt.Errorf("account #%d: neither WIF nor hex private key", i)
			}
		}

		res = append(res, k)
	}

	return res, nil
}

// PriceFeedHash decodes configured price feed contract, see ParseHash. It
// returns false if the network has no price feed configured.
func (n Network) PriceFeedHash() (util.Uint160, bool, error) {
	if n.PriceFeed == "" {
		return util.Uint160{}, false, nil
	}

	h, err := ParseHash(n.PriceFeed)
	if err != nil {
		return util.Uint160{}, false, fmt.Errorf("invalid price feed address: %w", err)
	}

	return h, true, nil
}

// ParseHash decodes contract script hash which is either a Neo address or
// LE hex string.
func ParseHash(s string) (util.Uint160, error) {
	if strings.HasPrefix(s, "N") {
		return address.StringToUint160(s)
	}

	return util.Uint160DecodeStringLE(strings.TrimPrefix(s, "0x"))
}

const redacted = "<redacted>"

// Redacted returns copy of the configuration with secrets (private keys and
// API keys) replaced.
func (c Config) Redacted() Config {
	nets := make(map[string]Network, len(c.Networks))
	for name, n := range c.Networks {
		accs := make([]string, len(n.Accounts))
		for i := range accs {
			accs[i] = redacted
		}

		n.Accounts = accs
		nets[name] = n
	}

	c.Networks = nets

	if c.Explorer.APIKey != "" {
		c.Explorer.APIKey = redacted
	}

	if c.GasReporter.CoinMarketCapKey != "" {
		c.GasReporter.CoinMarketCapKey = redacted
	}

	return c
}

// Endpoint returns RPC endpoint of the network. It fails for networks without
// one, e.g. if the environment variable it's taken from is not set.
func (n Network) Endpoint() (string, error) {
	if n.URL == "" {
		return "", errors.New("network has no RPC endpoint")
	}

	return n.URL, nil
}

// RPCTimeout returns network timeout or DefaultRPCTimeout if unset.
func (n Network) RPCTimeout() time.Duration {
	if n.Timeout <= 0 {
		return DefaultRPCTimeout
	}

	return n.Timeout
}
