package tests

import (
	"fmt"
	"math/big"
	"path"
	"sync"
	"testing"

	"github.com/nspcc-dev/fundme-contract/config"
	"github.com/nspcc-dev/fundme-contract/contracts"
	"github.com/nspcc-dev/fundme-contract/deploy"
	"github.com/nspcc-dev/fundme-contract/gasreport"
	"github.com/nspcc-dev/neo-go/pkg/core/native/nativenames"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
)

const (
	contractsPath = "../contracts"

	// SignersCount is the number of funded accounts every fixture has.
	SignersCount = 6

	// SignerBalance is the initial GAS balance of each fixture signer.
	SignerBalance = 1000_0000_0000
)

var (
	reporterMtx sync.RWMutex
	reporter    *gasreport.Reporter
)

// UseGasReporter makes all fixtures record fees of the transactions they send
// into r. Nil disables recording.
func UseGasReporter(r *gasreport.Reporter) {
	reporterMtx.Lock()
	reporter = r
	reporterMtx.Unlock()
}

func currentReporter() *gasreport.Reporter {
	reporterMtx.RLock()
	defer reporterMtx.RUnlock()
	return reporter
}

// Fixture is a fresh chain with the tagged contract set deployed.
type Fixture struct {
	*neotest.Executor

	Config  config.Config
	Network string

	// Signers are funded accounts, Deployer is one of them resolved from the
	// "deployer" named account.
	Signers  []neotest.Signer
	Deployer neotest.Signer

	// names are manifest names of deployed contracts by their directory names.
	names     map[string]string
	contracts map[string]util.Uint160
	compiled  map[string]*neotest.Contract
	reporter  *gasreport.Reporter
}

// LoadConfig reads the suite configuration from the repository root.
func LoadConfig(t testing.TB) config.Config {
	cfg, err := config.LoadOrDefault(path.Join("..", config.DefaultPath))
	require.NoError(t, err)
	return cfg
}

// SkipIfNotDevelopment skips the test if the configured network is not a
// development chain.
func SkipIfNotDevelopment(t testing.TB, cfg config.Config) {
	if !cfg.IsDevelopment(cfg.DefaultNetwork) {
		t.Skipf("network '%s' is not a development chain", cfg.DefaultNetwork)
	}
}

// DeployFixture creates a new chain, funds signers and deploys contracts with
// the given tag ("all", "mocks" or "fundme"). Deploying "fundme" alone
// requires the network to have PriceFeed configured.
func DeployFixture(t testing.TB, tag string) *Fixture {
	cfg := LoadConfig(t)
	SkipIfNotDevelopment(t, cfg)

	names, err := contracts.Tagged(tag)
	require.NoError(t, err)

	f := &Fixture{
		Executor:  newExecutor(t),
		Config:    cfg,
		Network:   cfg.DefaultNetwork,
		names:     make(map[string]string),
		contracts: make(map[string]util.Uint160),
		compiled:  make(map[string]*neotest.Contract),
		reporter:  currentReporter(),
	}

	for i := 0; i < SignersCount; i++ {
		f.Signers = append(f.Signers, f.NewAccount(t, SignerBalance))
	}

	deployerIndex, err := cfg.Account("deployer", f.Network)
	require.NoError(t, err)
	require.Less(t, deployerIndex, len(f.Signers), "deployer account index")

	f.Deployer = f.Signers[deployerIndex]

	n, err := cfg.Network(f.Network)
	require.NoError(t, err)

	priceFeed, _, err := n.PriceFeedHash()
	require.NoError(t, err)

	for _, name := range names {
		var args []any

		switch name {
		case contracts.PriceFeed:
			args = deploy.PriceFeedArgs(deploy.PriceFeedContractPrm{})
		case contracts.FundMe:
			if pf, ok := f.contracts[contracts.PriceFeed]; ok {
				priceFeed = pf
			}
			require.False(t, priceFeed.Equals(util.Uint160{}), "price feed must be deployed or configured")

			args = deploy.FundMeArgs(deploy.FundMeContractPrm{Owner: f.Deployer.ScriptHash()}, f.CommitteeHash, priceFeed)
		}

		f.deployContract(t, name, args)
	}

	return f
}

func (f *Fixture) deployContract(t testing.TB, name string, args []any) {
	srcPath := path.Join(contractsPath, name)

	c := neotest.CompileFile(t, f.CommitteeHash, srcPath, path.Join(srcPath, "config.yml"))
	h := f.DeployContract(t, c, args)

	if f.reporter != nil {
		tx, _ := f.GetTransaction(t, h)
		f.reporter.Record(c.Manifest.Name, gasreport.DeploymentMethod, tx.SystemFee+tx.NetworkFee)
	}

	f.names[name] = c.Manifest.Name
	f.contracts[name] = c.Hash
	f.compiled[name] = c
}

// Compiled returns contract deployed by the fixture as it was compiled.
func (f *Fixture) Compiled(t testing.TB, name string) *neotest.Contract {
	c, ok := f.compiled[name]
	require.True(t, ok, fmt.Sprintf("contract '%s' is not deployed", name))
	return c
}

// ContractHash returns address of the deployed contract by its name.
func (f *Fixture) ContractHash(t testing.TB, name string) util.Uint160 {
	h, ok := f.contracts[name]
	require.True(t, ok, fmt.Sprintf("contract '%s' is not deployed", name))
	return h
}

// Contract returns client of the deployed contract bound to the signer.
func (f *Fixture) Contract(t testing.TB, name string, signer neotest.Signer) *Client {
	h := f.ContractHash(t, name)

	return &Client{
		t:      t,
		f:      f,
		name:   f.names[name],
		Hash:   h,
		Signer: signer,
		inv:    f.NewInvoker(h, signer),
	}
}

// GAS returns client of native GAS contract bound to the signer.
func (f *Fixture) GAS(t testing.TB, signer neotest.Signer) *Client {
	return f.Native(t, nativenames.Gas, signer)
}

// Native returns client of the native contract bound to the signer.
func (f *Fixture) Native(t testing.TB, name string, signer neotest.Signer) *Client {
	h := f.NativeHash(t, name)

	return &Client{
		t:      t,
		f:      f,
		name:   name,
		Hash:   h,
		Signer: signer,
		inv:    f.NewInvoker(h, signer),
	}
}

// Fund transfers GAS from the funder to the FundMe contract and returns
// the pending transfer.
func (f *Fixture) Fund(t testing.TB, funder neotest.Signer, amount int64) *PendingTx {
	return f.GAS(t, funder).Send("transfer", funder.ScriptHash(), f.ContractHash(t, contracts.FundMe), amount, nil)
}

// Balance returns current GAS balance of the account.
func (f *Fixture) Balance(acc util.Uint160) *big.Int {
	return f.Chain.GetUtilityTokenBalance(acc)
}
