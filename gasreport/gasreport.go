/*
Package gasreport collects fees paid for contract invocations and renders
them as a per-method table, optionally priced in fiat currency.
*/
package gasreport

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"sync"
	"text/tabwriter"

	"github.com/nspcc-dev/fundme-contract/config"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
)

// DeploymentMethod is the pseudo-method contract deployments are recorded
// under.
const DeploymentMethod = "(deploy)"

const (
	colorHeader = "\x1b[1;36m"
	colorReset  = "\x1b[0m"
)

// PriceSource provides token price in fiat currency.
type PriceSource interface {
	Price(ctx context.Context, token, currency string) (float64, error)
}

// Reporter accumulates invocation fees. It's safe for concurrent use.
type Reporter struct {
	cfg    config.GasReporter
	prices PriceSource

	mtx   sync.Mutex
	stats map[statKey]*Stat
}

type statKey struct {
	contract string
	method   string
}

// Stat describes fees paid for a single contract method.
type Stat struct {
	Contract string
	Method   string
	Calls    int
	Min      int64
	Max      int64
	Total    int64
}

// Avg returns average fee of a call.
func (s Stat) Avg() int64 {
	if s.Calls == 0 {
		return 0
	}

	return s.Total / int64(s.Calls)
}

// New creates Reporter with the given settings. prices can be nil, fiat
// cost is omitted then.
func New(cfg config.GasReporter, prices PriceSource) *Reporter {
	return &Reporter{
		cfg:    cfg,
		prices: prices,
		stats:  make(map[statKey]*Stat),
	}
}

// Enabled checks whether the report is going to be written.
func (r *Reporter) Enabled() bool {
	return r != nil && r.cfg.Enabled
}

// Record registers fee (in GAS fractions) paid for contract method call.
// It's a no-op for nil Reporter.
func (r *Reporter) Record(contract, method string, fee int64) {
	if r == nil {
		return
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	k := statKey{contract: contract, method: method}

	s, ok := r.stats[k]
	if !ok {
		s = &Stat{Contract: contract, Method: method, Min: math.MaxInt64}
		r.stats[k] = s
	}

	s.Calls++
	s.Total += fee
	if fee < s.Min {
		s.Min = fee
	}
	if fee > s.Max {
		s.Max = fee
	}
}

// Stats returns collected statistics sorted by contract and method.
func (r *Reporter) Stats() []Stat {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	res := make([]Stat, 0, len(r.stats))
	for _, s := range r.stats {
		res = append(res, *s)
	}

	sort.Slice(res, func(i, j int) bool {
		if res[i].Contract != res[j].Contract {
			return res[i].Contract < res[j].Contract
		}
		return res[i].Method < res[j].Method
	})

	return res
}

// Render writes the report to w. Price source failure is not fatal: the
// report is written without fiat column and the error is returned after
// that.
func (r *Reporter) Render(ctx context.Context, w io.Writer) error {
	var (
		price    float64
		priceErr error
		withFiat = r.prices != nil && r.cfg.Currency != ""
	)

	if withFiat {
		price, priceErr = r.prices.Price(ctx, r.token(), r.cfg.Currency)
		if priceErr != nil {
			withFiat = false
			priceErr = fmt.Errorf("fetch %s price: %w", r.token(), priceErr)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := "Contract\tMethod\tCalls\tMin\tMax\tAvg"
	if withFiat {
		header += "\t" + r.cfg.Currency + " (avg)"
	}

	if !r.cfg.NoColors {
		header = colorHeader + header + colorReset
	}

	fmt.Fprintln(tw, header)

	for _, s := range r.Stats() {
		line := fmt.Sprintf("%s\t%s\t%d\t%s\t%s\t%s", s.Contract, s.Method, s.Calls,
			fixedn.Fixed8(s.Min), fixedn.Fixed8(s.Max), fixedn.Fixed8(s.Avg()))
		if withFiat {
			line += fmt.Sprintf("\t%.4f", fixedn.Fixed8(s.Avg()).FloatValue()*price)
		}

		fmt.Fprintln(tw, line)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return priceErr
}

// Flush writes the report into the configured output file. It does nothing
// if the report is disabled.
func (r *Reporter) Flush(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}

	f, err := os.Create(r.cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}

	err = r.Render(ctx, f)

	if cErr := f.Close(); cErr != nil && err == nil {
		err = fmt.Errorf("close report file: %w", cErr)
	}

	return err
}

func (r *Reporter) token() string {
	if r.cfg.Token == "" {
		return "GAS"
	}

	return r.cfg.Token
}
