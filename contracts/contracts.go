/*
Package contracts provides access to FundMe suite contracts: it compiles them
from Go sources or reads prebuilt NEF and manifest files.
*/
package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/nspcc-dev/neo-go/cli/smartcontract"
	"github.com/nspcc-dev/neo-go/pkg/compiler"
	"github.com/nspcc-dev/neo-go/pkg/config"
	"github.com/nspcc-dev/neo-go/pkg/io"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
)

const (
	// FundMe is the directory name of FundMe contract.
	FundMe = "fundme"
	// PriceFeed is the directory name of the price feed mock contract. It is
	// deployed to development networks only.
	PriceFeed = "pricefeed"

	nefName      = "contract.nef"
	manifestName = "manifest.json"
	configName   = "config.yml"
)

// Contract groups information about Neo contract.
type Contract struct {
	NEF      nef.File
	Manifest manifest.Manifest
}

var (
	errInvalidNEF      = errors.New("invalid NEF")
	errInvalidManifest = errors.New("invalid manifest")

	// tags maps deployment tags to the contracts they include in
	// deployment order.
	tags = map[string][]string{
		"all":    {PriceFeed, FundMe},
		"mocks":  {PriceFeed},
		"fundme": {FundMe},
	}
)

// Tagged returns names of contracts deployed under the given tag. They're
// returned in the order they're supposed to be deployed.
func Tagged(tag string) ([]string, error) {
	names, ok := tags[tag]
	if !ok {
		return nil, fmt.Errorf("unknown deployment tag '%s'", tag)
	}

	return append([]string(nil), names...), nil
}

// Read reads prebuilt contracts from the given file system. Each contract is
// expected in its own directory with contract.nef and manifest.json files.
func Read(_fs fs.FS, dirs ...string) ([]Contract, error) {
	var res = make([]Contract, 0, len(dirs))

	for i := range dirs {
		c, err := readContractFromDir(_fs, dirs[i])
		if err != nil {
			return nil, fmt.Errorf("read contract %s: %w", dirs[i], err)
		}

		res = append(res, c)
	}

	return res, nil
}

// Compile compiles contract from Go sources in srcDir using config.yml from
// the same directory. compilerVersion is stamped into the resulting NEF.
func Compile(srcDir string, compilerVersion string) (Contract, error) {
	var c Contract

	// nef.NewFile() cares about version a lot.
	config.Version = compilerVersion

	ne, di, err := compiler.CompileWithOptions(srcDir, nil, nil)
	if err != nil {
		return c, fmt.Errorf("compile %s: %w", srcDir, err)
	}

	conf, err := smartcontract.ParseContractConfig(filepath.Join(srcDir, configName))
	if err != nil {
		return c, fmt.Errorf("parse contract config: %w", err)
	}

	o := &compiler.Options{}
	o.Name = conf.Name
	o.ContractEvents = conf.Events
	o.ContractSupportedStandards = conf.SupportedStandards
	o.Permissions = make([]manifest.Permission, len(conf.Permissions))
	for i := range conf.Permissions {
		o.Permissions[i] = manifest.Permission(conf.Permissions[i])
	}
	o.SafeMethods = conf.SafeMethods

	m, err := compiler.CreateManifest(di, o)
	if err != nil {
		return c, fmt.Errorf("create manifest: %w", err)
	}

	c.NEF = *ne
	c.Manifest = *m

	return c, nil
}

func readContractFromDir(_fs fs.FS, dir string) (Contract, error) {
	var c Contract

	// fs.FS always uses "/" even on Windows, so filepath.Join() is not applicable.
	fNEF, err := _fs.Open(dir + "/" + nefName)
	if err != nil {
		return c, fmt.Errorf("open NEF: %w", err)
	}
	defer fNEF.Close()

	fManifest, err := _fs.Open(dir + "/" + manifestName)
	if err != nil {
		return c, fmt.Errorf("open manifest: %w", err)
	}
	defer fManifest.Close()

	bReader := io.NewBinReaderFromIO(fNEF)
	c.NEF.DecodeBinary(bReader)
	if bReader.Err != nil {
		return c, fmt.Errorf("%w: %v", errInvalidNEF, bReader.Err)
	}

	err = json.NewDecoder(fManifest).Decode(&c.Manifest)
	if err != nil {
		return c, fmt.Errorf("%w: %v", errInvalidManifest, err)
	}

	return c, nil
}
