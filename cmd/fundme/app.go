package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/nspcc-dev/fundme-contract/common"
	"github.com/nspcc-dev/fundme-contract/config"
	"github.com/nspcc-dev/fundme-contract/deploy"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config, c",
		Usage: "Path to the configuration file",
		Value: config.DefaultPath,
	}
	envFlag = cli.StringFlag{
		Name:  "env",
		Usage: "Path to the file with environment variables",
		Value: ".env",
	}
	networkFlag = cli.StringFlag{
		Name:  "network, n",
		Usage: "Target network (overrides DefaultNetwork from the configuration)",
	}
	debugFlag = cli.BoolFlag{
		Name:  "debug, d",
		Usage: "Enable debug logging",
	}
	contractFlag = cli.StringFlag{
		Name:  "fundme",
		Usage: "FundMe contract address (Neo address or LE hex). Computed from the local sources and deployer account if omitted",
	}
	contractsDirFlag = cli.StringFlag{
		Name:  "contracts",
		Usage: "Directory with contract sources",
		Value: "contracts",
	}
	accountFlag = cli.StringFlag{
		Name:  "account, a",
		Usage: "Named account role to sign transactions with",
		Value: "deployer",
	}
	snapshotDirFlag = cli.StringFlag{
		Name:  "out, o",
		Usage: "Snapshot directory",
		Value: "snapshots",
	}
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "FundMe\nVersion: %s\nContract version: %d\nGoVersion: %s\n",
		c.App.Version,
		common.Version,
		runtime.Version(),
	)
}

func newApp() *cli.App {
	cli.VersionPrinter = versionPrinter

	ctl := cli.NewApp()
	ctl.Name = "fundme"
	ctl.Version = appVersion
	ctl.Usage = "Deploy and operate FundMe contract"
	ctl.ErrWriter = os.Stdout
	ctl.Flags = []cli.Flag{configFlag, envFlag, networkFlag, debugFlag}
	ctl.Commands = []cli.Command{
		{
			Name:      "deploy",
			Usage:     "Deploy contracts selected by tag",
			UsageText: "fundme deploy [--tag all|mocks|fundme] [--contracts dir]",
			Action:    deployContracts,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "tag, t",
					Usage: "Deployment tag, defaults to 'all' on development chains and 'fundme' otherwise",
				},
				contractsDirFlag,
			},
		},
		{
			Name:      "fund",
			Usage:     "Transfer GAS to FundMe contract",
			UsageText: "fundme fund --amount <GAS> [--account role] [--fundme address]",
			Action:    fund,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "amount",
					Usage: "Amount of GAS to contribute",
					Value: "0.1",
				},
				accountFlag,
				contractFlag,
				contractsDirFlag,
			},
		},
		{
			Name:      "withdraw",
			Usage:     "Withdraw collected GAS to the owner",
			UsageText: "fundme withdraw [--account role] [--fundme address]",
			Action:    withdraw,
			Flags:     []cli.Flag{accountFlag, contractFlag, contractsDirFlag},
		},
		{
			Name:      "status",
			Usage:     "Print FundMe contract state",
			UsageText: "fundme status [--fundme address]",
			Action:    status,
			Flags:     []cli.Flag{contractFlag, contractsDirFlag},
		},
		{
			Name:      "verify",
			Usage:     "Check that deployed FundMe contract matches local sources",
			UsageText: "fundme verify [--fundme address]",
			Action:    verify,
			Flags:     []cli.Flag{contractFlag, contractsDirFlag},
		},
		{
			Name:      "snapshot",
			Usage:     "Save FundMe state and storage to the local directory",
			UsageText: "fundme snapshot [--out dir] [--fundme address]",
			Action:    takeSnapshot,
			Flags:     []cli.Flag{snapshotDirFlag, contractFlag, contractsDirFlag},
		},
		{
			Name:      "snapshots",
			Usage:     "List saved snapshots or print FundMe state from one of them",
			UsageText: "fundme snapshots [--out dir] [<network>-<height>]",
			Action:    showSnapshots,
			Flags:     []cli.Flag{snapshotDirFlag},
		},
		{
			Name:   "config",
			Usage:  "Print effective configuration with secrets redacted",
			Action: printConfig,
		},
	}

	return ctl
}

// appVersion is set on build.
var appVersion = "dev"

// env is the context shared by all commands.
type env struct {
	cfg     config.Config
	network string
	net     config.Network
	log     *zap.Logger
}

func loadEnv(c *cli.Context) (*env, error) {
	err := godotenv.Load(c.GlobalString("env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load environment file: %w", err)
	}

	cfg, err := config.LoadOrDefault(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}

	name := c.GlobalString("network")
	if name == "" {
		name = cfg.DefaultNetwork
	}

	n, err := cfg.Network(name)
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg.Logger, c.GlobalBool("debug"))
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:     cfg,
		network: name,
		net:     n,
		log:     log.With(zap.String("network", name)),
	}, nil
}

// account returns local account of the named role.
func (e *env) account(role string) (*wallet.Account, error) {
	idx, err := e.cfg.Account(role, e.network)
	if err != nil {
		return nil, err
	}

	pks, err := e.net.PrivateKeys()
	if err != nil {
		return nil, err
	}

	if idx >= len(pks) {
		return nil, fmt.Errorf("account '%s' is #%d, network '%s' has %d accounts configured",
			role, idx, e.network, len(pks))
	}

	return wallet.NewAccountFromPrivateKey(pks[idx]), nil
}

// fundMeAddress returns FundMe address from the flag or computes it from the
// local sources and deployer account.
func (e *env) fundMeAddress(c *cli.Context) (util.Uint160, error) {
	if s := c.String("fundme"); s != "" {
		return config.ParseHash(s)
	}

	deployer, err := e.account("deployer")
	if err != nil {
		return util.Uint160{}, fmt.Errorf("compute FundMe address: %w", err)
	}

	ctr, err := e.compile(c, fundMeName)
	if err != nil {
		return util.Uint160{}, err
	}

	return deploy.ContractAddress(deployer.ScriptHash(), ctr), nil
}

func exitErr(err error) error {
	if err == nil {
		return nil
	}

	return cli.NewExitError(err, 1)
}
