package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"text/tabwriter"

	"github.com/nspcc-dev/fundme-contract/contracts"
	"github.com/nspcc-dev/fundme-contract/deploy"
	"github.com/nspcc-dev/fundme-contract/rpc/fundme"
	"github.com/nspcc-dev/fundme-contract/rpc/pricefeed"
	"github.com/nspcc-dev/fundme-contract/snapshot"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/gas"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	fundMeName    = contracts.FundMe
	priceFeedName = contracts.PriceFeed

	gasPrecision = 8
)

func (e *env) compile(c *cli.Context, name string) (deploy.CommonDeployPrm, error) {
	dir := filepath.Join(c.String("contracts"), name)

	e.log.Debug("compiling contract", zap.String("dir", dir), zap.String("compiler", e.cfg.CompilerVersion()))

	ctr, err := contracts.Compile(dir, e.cfg.CompilerVersion())
	if err != nil {
		return deploy.CommonDeployPrm{}, err
	}

	return deploy.CommonDeployPrm{NEF: ctr.NEF, Manifest: ctr.Manifest}, nil
}

func deployContracts(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return exitErr(err)
	}

	tag := c.String("tag")
	if tag == "" {
		tag = "fundme"
		if e.cfg.IsDevelopment(e.network) {
			tag = "all"
		}
	}

	names, err := contracts.Tagged(tag)
	if err != nil {
		return exitErr(err)
	}

	acc, err := e.account("deployer")
	if err != nil {
		return exitErr(err)
	}

	prm := deploy.Prm{
		Logger:       e.log,
		LocalAccount: acc,
		Tag:          tag,
	}

	for _, name := range names {
		common, err := e.compile(c, name)
		if err != nil {
			return exitErr(err)
		}

		switch name {
		case priceFeedName:
			prm.PriceFeedContract.Common = common
		case fundMeName:
			prm.FundMeContract.Common = common
		}
	}

	if pf, ok, err := e.net.PriceFeedHash(); err != nil {
		return exitErr(err)
	} else if ok {
		prm.PriceFeed = pf
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.net.RPCTimeout())
	defer cancel()

	b, err := dial(context.Background(), e.net, acc)
	if err != nil {
		return exitErr(err)
	}
	defer b.close()

	prm.Blockchain = b.rpc

	res, err := deploy.Deploy(ctx, prm)
	if err != nil {
		return exitErr(err)
	}

	if !res.PriceFeed.Equals(util.Uint160{}) {
		fmt.Fprintf(c.App.Writer, "PriceFeed: %s (%s)\n", address.Uint160ToString(res.PriceFeed), res.PriceFeed.StringLE())
	}

	if !res.FundMe.Equals(util.Uint160{}) {
		fmt.Fprintf(c.App.Writer, "FundMe: %s (%s)\n", address.Uint160ToString(res.FundMe), res.FundMe.StringLE())
	}

	return nil
}

func fund(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return exitErr(err)
	}

	amount, err := fixedn.FromString(c.String("amount"), gasPrecision)
	if err != nil {
		return exitErr(fmt.Errorf("invalid amount: %w", err))
	}

	acc, err := e.account(c.String("account"))
	if err != nil {
		return exitErr(err)
	}

	h, err := e.fundMeAddress(c)
	if err != nil {
		return exitErr(err)
	}

	b, err := dial(context.Background(), e.net, acc)
	if err != nil {
		return exitErr(err)
	}
	defer b.close()

	ctx, cancel := context.WithTimeout(context.Background(), e.net.RPCTimeout())
	defer cancel()

	txHash, vub, err := fundme.Fund(b.actor, h, amount)
	if err != nil {
		return exitErr(err)
	}

	e.log.Info("funding transaction sent", zap.Stringer("tx", txHash),
		zap.String("amount", fixedn.ToString(amount, gasPrecision)))

	err = await(ctx, b, txHash, vub)
	if err != nil {
		return exitErr(err)
	}

	e.log.Info("contribution accepted", zap.Stringer("funder", acc.ScriptHash()))

	return nil
}

func withdraw(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return exitErr(err)
	}

	acc, err := e.account(c.String("account"))
	if err != nil {
		return exitErr(err)
	}

	h, err := e.fundMeAddress(c)
	if err != nil {
		return exitErr(err)
	}

	b, err := dial(context.Background(), e.net, acc)
	if err != nil {
		return exitErr(err)
	}
	defer b.close()

	ctx, cancel := context.WithTimeout(context.Background(), e.net.RPCTimeout())
	defer cancel()

	txHash, vub, err := fundme.New(b.actor, h).Withdraw()
	if err != nil {
		return exitErr(fundme.FromError(err))
	}

	e.log.Info("withdrawal transaction sent", zap.Stringer("tx", txHash))

	err = await(ctx, b, txHash, vub)
	if err != nil {
		return exitErr(err)
	}

	e.log.Info("funds withdrawn", zap.Stringer("owner", acc.ScriptHash()))

	return nil
}

func await(ctx context.Context, b *remoteBlockchain, txHash util.Uint256, vub uint32) error {
	aer, err := deploy.Await(ctx, b.actor, txHash, vub)
	if err != nil {
		return err
	}

	return fundme.FromAppExecResult(aer)
}

func status(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return exitErr(err)
	}

	h, err := e.fundMeAddress(c)
	if err != nil {
		return exitErr(err)
	}

	b, err := dial(context.Background(), e.net, nil)
	if err != nil {
		return exitErr(err)
	}
	defer b.close()

	r := fundme.NewReader(b.inv, h)

	owner, err := r.GetOwner()
	if err != nil {
		return exitErr(fmt.Errorf("get owner: %w", err))
	}

	pf, err := r.GetPriceFeed()
	if err != nil {
		return exitErr(fundme.FromError(err))
	}

	count, err := r.GetFundersCount()
	if err != nil {
		return exitErr(fmt.Errorf("get funders count: %w", err))
	}

	balance, err := gas.NewReader(b.inv).BalanceOf(h)
	if err != nil {
		return exitErr(fmt.Errorf("get contract balance: %w", err))
	}

	feed := pricefeed.NewReader(b.inv, pf)

	round, err := feed.LatestRoundData()
	if err != nil {
		return exitErr(fmt.Errorf("get latest price: %w", err))
	}

	decimals, err := feed.Decimals()
	if err != nil {
		return exitErr(fmt.Errorf("get price decimals: %w", err))
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "FundMe:\t%s\n", address.Uint160ToString(h))
	fmt.Fprintf(w, "Owner:\t%s\n", address.Uint160ToString(owner))
	fmt.Fprintf(w, "Price feed:\t%s\n", address.Uint160ToString(pf))
	fmt.Fprintf(w, "GAS price:\t%s USD (round %s)\n", fixedn.ToString(round.Answer, int(decimals.Int64())), round.RoundID)
	fmt.Fprintf(w, "Balance:\t%s GAS\n", fixedn.ToString(balance, gasPrecision))

	if minimum := fundme.MinimumFunding(round.Answer, uint32(decimals.Uint64())); minimum != nil {
		fmt.Fprintf(w, "Minimum contribution:\t%s GAS\n", fixedn.ToString(minimum, gasPrecision))
	}

	fmt.Fprintf(w, "Funders:\t%s\n", count)

	if count.Sign() > 0 {
		items, err := r.IterateFundedExpanded(int(count.Int64()))
		if err != nil {
			return exitErr(fmt.Errorf("iterate funded amounts: %w", err))
		}

		for _, it := range items {
			addr, amount, err := fundedRecord(it)
			if err != nil {
				return exitErr(err)
			}

			fmt.Fprintf(w, "  %s\t%s GAS\n", address.Uint160ToString(addr), fixedn.ToString(amount, gasPrecision))
		}
	}

	return exitErr(w.Flush())
}

// fundedRecord decodes key-value pair returned by iterateFunded.
func fundedRecord(item stackitem.Item) (util.Uint160, *big.Int, error) {
	kv, ok := item.Value().([]stackitem.Item)
	if !ok || len(kv) != 2 {
		return util.Uint160{}, nil, errors.New("funded record is not a key-value pair")
	}

	b, err := kv[0].TryBytes()
	if err != nil {
		return util.Uint160{}, nil, fmt.Errorf("funder address: %w", err)
	}

	addr, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return util.Uint160{}, nil, fmt.Errorf("funder address: %w", err)
	}

	amount, err := kv[1].TryInteger()
	if err != nil {
		return util.Uint160{}, nil, fmt.Errorf("funded amount: %w", err)
	}

	return addr, amount, nil
}

func verify(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return exitErr(err)
	}

	h, err := e.fundMeAddress(c)
	if err != nil {
		return exitErr(err)
	}

	local, err := e.compile(c, fundMeName)
	if err != nil {
		return exitErr(err)
	}

	b, err := dial(context.Background(), e.net, nil)
	if err != nil {
		return exitErr(err)
	}
	defer b.close()

	st, err := b.rpc.GetContractStateByHash(h)
	if err != nil {
		return exitErr(fmt.Errorf("get contract state: %w", err))
	}

	l := e.log.With(zap.Stringer("address", h))

	if st.Manifest.Name != local.Manifest.Name {
		return exitErr(fmt.Errorf("contract name mismatch: deployed '%s', local '%s'", st.Manifest.Name, local.Manifest.Name))
	}

	if st.NEF.Checksum != local.NEF.Checksum {
		return exitErr(fmt.Errorf("NEF checksum mismatch: deployed %d, local %d", st.NEF.Checksum, local.NEF.Checksum))
	}

	l.Info("deployed contract matches local sources", zap.Uint32("checksum", st.NEF.Checksum))

	if e.cfg.Explorer.URL != "" {
		fmt.Fprintf(c.App.Writer, "%s/contract/%s\n", e.cfg.Explorer.URL, h.StringLE())
	}

	return nil
}

func takeSnapshot(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return exitErr(err)
	}

	h, err := e.fundMeAddress(c)
	if err != nil {
		return exitErr(err)
	}

	b, err := dial(context.Background(), e.net, nil)
	if err != nil {
		return exitErr(err)
	}
	defer b.close()

	height, root, err := b.stateRoot()
	if err != nil {
		return exitErr(err)
	}

	id := snapshot.ID{Network: e.network, Height: height}
	dir := c.String("out")

	w, err := snapshot.Create(dir, id)
	if err != nil {
		return exitErr(err)
	}
	defer w.Close()

	pull := func(name string, contract util.Uint160, f func(key, value []byte) error) error {
		e.log.Info("pulling contract state", zap.String("contract", name),
			zap.Stringer("address", contract), zap.Uint32("height", height))

		st, err := b.rpc.GetContractStateByHash(contract)
		if err != nil {
			return fmt.Errorf("get '%s' contract state: %w", name, err)
		}

		write := w.AddContract(name, *st)

		err = b.iterateContractStorage(root, contract, func(key, value []byte) error {
			if f != nil {
				if err := f(key, value); err != nil {
					return err
				}
			}
			return write(key, value)
		})
		if err != nil {
			return fmt.Errorf("iterate '%s' contract storage: %w", name, err)
		}

		return nil
	}

	var fundMeItems []snapshot.Item

	err = pull(fundMeName, h, func(key, value []byte) error {
		fundMeItems = append(fundMeItems, snapshot.Item{Key: key, Value: value})
		return nil
	})
	if err != nil {
		return exitErr(err)
	}

	s, err := snapshot.DecodeFundMe(fundMeItems)
	if err != nil {
		return exitErr(fmt.Errorf("decode FundMe storage: %w", err))
	}

	err = pull(priceFeedName, s.PriceFeed, nil)
	if err != nil {
		return exitErr(err)
	}

	err = w.Flush()
	if err != nil {
		return exitErr(err)
	}

	e.log.Info("snapshot saved", zap.String("dir", dir), zap.Stringer("id", id),
		zap.Int("funders", len(s.Funders)), zap.String("funded", fixedn.ToString(s.Total(), gasPrecision)))

	fmt.Fprintln(c.App.Writer, id)

	return nil
}

func showSnapshots(c *cli.Context) error {
	dir := c.String("out")

	if c.NArg() == 0 {
		ids, err := snapshot.List(dir)
		if err != nil {
			return exitErr(err)
		}

		for i := range ids {
			fmt.Fprintln(c.App.Writer, ids[i])
		}

		return nil
	}

	id, err := snapshot.ParseID(c.Args().First())
	if err != nil {
		return exitErr(err)
	}

	cs, err := snapshot.Read(dir, id)
	if err != nil {
		return exitErr(err)
	}

	ctr, ok := snapshot.Find(cs, fundMeName)
	if !ok {
		return exitErr(fmt.Errorf("snapshot %s has no %s contract", id, fundMeName))
	}

	s, err := snapshot.DecodeFundMe(ctr.Storage)
	if err != nil {
		return exitErr(fmt.Errorf("decode FundMe storage: %w", err))
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "FundMe:\t%s\n", address.Uint160ToString(ctr.State.Hash))
	fmt.Fprintf(w, "Owner:\t%s\n", address.Uint160ToString(s.Owner))
	fmt.Fprintf(w, "Price feed:\t%s\n", address.Uint160ToString(s.PriceFeed))
	fmt.Fprintf(w, "Funded:\t%s GAS\n", fixedn.ToString(s.Total(), gasPrecision))
	fmt.Fprintf(w, "Funders:\t%d\n", len(s.Funders))

	for _, f := range s.Funders {
		fmt.Fprintf(w, "  %s\t%s GAS\n", address.Uint160ToString(f.Address), fixedn.ToString(f.Amount, gasPrecision))
	}

	return exitErr(w.Flush())
}

func printConfig(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return exitErr(err)
	}

	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)

	err = enc.Encode(e.cfg.Redacted())
	if err != nil {
		return exitErr(err)
	}

	return exitErr(enc.Close())
}
