package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/config/netmode"
	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	path := filepath.Join(t.TempDir(), "fundme.yml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadRepositoryConfig(t *testing.T) {
	t.Setenv(EnvTestNetRPC, "https://rpc.t5.n3.nspcc.ru:20331")
	t.Setenv(EnvExplorerKey, "explorer-key")
	t.Setenv(EnvCoinMarketCap, "")
	t.Setenv(EnvNetworkName, "")

	c, err := Load(filepath.Join("..", DefaultPath))
	require.NoError(t, err)

	require.Equal(t, NeotestNetwork, c.DefaultNetwork)
	require.Equal(t, []string{NeotestNetwork, LocalhostNetwork}, c.DevelopmentChains)
	require.Equal(t, 500*time.Second, c.Test.Timeout)
	require.Equal(t, "0.102.0", c.CompilerVersion())

	testnet, err := c.Network(TestNetwork)
	require.NoError(t, err)
	require.Equal(t, "https://rpc.t5.n3.nspcc.ru:20331", testnet.URL)
	require.Equal(t, netmode.TestNet, testnet.Magic)
	require.Equal(t, 2*time.Minute, testnet.RPCTimeout())

	local, err := c.Network(LocalhostNetwork)
	require.NoError(t, err)
	require.Equal(t, netmode.PrivNet, local.Magic)

	require.Equal(t, "explorer-key", c.Explorer.APIKey)
	require.True(t, c.GasReporter.Enabled)
	require.Equal(t, "gas-report.txt", c.GasReporter.OutputFile)
	require.Equal(t, "USD", c.GasReporter.Currency)
	require.Empty(t, c.GasReporter.CoinMarketCapKey)
}

func TestEnvExpansion(t *testing.T) {
	t.Setenv(EnvTestNetRPC, "")
	t.Setenv(EnvTestNetKey, "")

	c, err := Load(writeConfig(t, `
Networks:
  testnet:
    URL: "${RPC_URL_SEPOLIA}"
    Magic: 894710606
    Accounts: ["${PRIVATE_KEY_SEPOLIA}"]
`))
	require.NoError(t, err)

	n, err := c.Network(TestNetwork)
	require.NoError(t, err)

	_, err = n.Endpoint()
	require.Error(t, err)

	ks, err := n.PrivateKeys()
	require.NoError(t, err)
	require.Empty(t, ks)

	k, err := keys.NewPrivateKey()
	require.NoError(t, err)

	t.Setenv(EnvTestNetRPC, "http://localhost:20331")
	t.Setenv(EnvTestNetKey, k.WIF())

	c, err = Load(writeConfig(t, `
Networks:
  testnet:
    URL: "${RPC_URL_SEPOLIA}"
    Accounts: ["${PRIVATE_KEY_SEPOLIA}", "`+k.String()+`"]
`))
	require.NoError(t, err)

	n, err = c.Network(TestNetwork)
	require.NoError(t, err)

	url, err := n.Endpoint()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:20331", url)

	ks, err = n.PrivateKeys()
	require.NoError(t, err)
	require.Len(t, ks, 2)
	require.Equal(t, k.GetScriptHash(), ks[0].GetScriptHash())
	require.Equal(t, k.GetScriptHash(), ks[1].GetScriptHash())
}

func TestInvalidAccount(t *testing.T) {
	n := Network{Accounts: []string{"not a key"}}

	_, err := n.PrivateKeys()
	require.Error(t, err)
}

func TestDefaults(t *testing.T) {
	t.Setenv(EnvNetworkName, "")

	c, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	require.Equal(t, Default().Networks, c.Networks)
	require.True(t, c.IsDevelopment(NeotestNetwork))
	require.False(t, c.IsDevelopment(TestNetwork))

	_, err = c.Network(TestNetwork)
	require.ErrorIs(t, err, ErrUnknownNetwork)

	// Partially specified file keeps other defaults.
	c, err = Load(writeConfig(t, "GasReporter:\n  Enabled: true\n"))
	require.NoError(t, err)
	require.True(t, c.GasReporter.Enabled)
	require.Equal(t, "gas-report.txt", c.GasReporter.OutputFile)
	require.Equal(t, DefaultTestTimeout, c.Test.Timeout)
}

func TestNetworkOverride(t *testing.T) {
	t.Setenv(EnvNetworkName, LocalhostNetwork)

	c, err := Load(writeConfig(t, "DefaultNetwork: neotest\n"))
	require.NoError(t, err)
	require.Equal(t, LocalhostNetwork, c.DefaultNetwork)

	t.Setenv(EnvNetworkName, "unknown")

	_, err = Load(writeConfig(t, "DefaultNetwork: neotest\n"))
	require.ErrorIs(t, err, ErrUnknownNetwork)
}

func TestInvalidConfig(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "Networks: [1, 2]"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "Compilers: []\n"))
	require.Error(t, err)
}

func TestNamedAccounts(t *testing.T) {
	t.Setenv(EnvNetworkName, "")

	c, err := Load(writeConfig(t, `
NamedAccounts:
  deployer:
    default: 0
    "56753": 2
  funder:
    neotest: 3
`))
	require.NoError(t, err)

	i, err := c.Account("deployer", NeotestNetwork)
	require.NoError(t, err)
	require.Equal(t, 0, i)

	i, err = c.Account("deployer", LocalhostNetwork)
	require.NoError(t, err)
	require.Equal(t, 2, i)

	i, err = c.Account("funder", "")
	require.NoError(t, err)
	require.Equal(t, 3, i)

	_, err = c.Account("funder", LocalhostNetwork)
	require.Error(t, err)

	_, err = c.Account("unknown", NeotestNetwork)
	require.Error(t, err)

	_, err = NamedAccount{"default": -1}.Resolve(NeotestNetwork, netmode.UnitTestNet)
	require.Error(t, err)
}

func TestPriceFeedHash(t *testing.T) {
	h := util.Uint160{1, 2, 3}

	_, ok, err := Network{}.PriceFeedHash()
	require.NoError(t, err)
	require.False(t, ok)

	actual, ok, err := Network{PriceFeed: h.StringLE()}.PriceFeedHash()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, h, actual)

	_, _, err = Network{PriceFeed: "bad"}.PriceFeedHash()
	require.Error(t, err)
}

func TestParseHash(t *testing.T) {
	h := util.Uint160{1, 2, 3}

	for _, s := range []string{h.StringLE(), "0x" + h.StringLE(), address.Uint160ToString(h)} {
		actual, err := ParseHash(s)
		require.NoError(t, err, s)
		require.Equal(t, h, actual, s)
	}

	_, err := ParseHash("NInvalidAddress")
	require.Error(t, err)
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Networks[TestNetwork] = Network{URL: "http://rpc", Accounts: []string{"secret", ""}}
	cfg.Explorer.APIKey = "explorer-key"
	cfg.GasReporter.CoinMarketCapKey = "cmc-key"

	r := cfg.Redacted()
	require.Equal(t, []string{redacted, redacted}, r.Networks[TestNetwork].Accounts)
	require.Equal(t, "http://rpc", r.Networks[TestNetwork].URL)
	require.Equal(t, redacted, r.Explorer.APIKey)
	require.Equal(t, redacted, r.GasReporter.CoinMarketCapKey)

	// Original is untouched.
	require.Equal(t, []string{"secret", ""}, cfg.Networks[TestNetwork].Accounts)
	require.Equal(t, "cmc-key", cfg.GasReporter.CoinMarketCapKey)
}
