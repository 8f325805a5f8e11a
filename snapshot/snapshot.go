package snapshot

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
)

// ID identifies the snapshot.
type ID struct {
	// Network the state was pulled from (e.g. testnet).
	Network string
	// Height of the chain the state corresponds to.
	Height uint32
}

const (
	sep = "-"

	contractsSuffix = "contracts.json"
	storageSuffix   = "storage.csv"
)

// ErrExists is returned on attempt to overwrite the existing snapshot.
var ErrExists = errors.New("snapshot already exists")

var encoding = base64.StdEncoding

// String returns hyphen-separated ID fields.
func (x ID) String() string {
	return x.Network + sep + strconv.FormatUint(uint64(x.Height), 10)
}

// ParseID decodes ID from its string representation.
func ParseID(s string) (ID, error) {
	ss := strings.Split(s, sep)
	if len(ss) != 2 || ss[0] == "" {
		return ID{}, fmt.Errorf("invalid snapshot ID '%s', expected <network>%s<height>", s, sep)
	}

	n, err := strconv.ParseUint(ss[1], 10, 32)
	if err != nil {
		return ID{}, fmt.Errorf("invalid snapshot height '%s': %w", ss[1], err)
	}

	return ID{Network: ss[0], Height: uint32(n)}, nil
}

// parseFileName decodes ID from the snapshot file name. Network name must not
// contain separator.
func parseFileName(name string) (ID, bool) {
	if !strings.HasSuffix(name, sep+contractsSuffix) {
		return ID{}, false
	}

	id, err := ParseID(strings.TrimSuffix(name, sep+contractsSuffix))
	return id, err == nil
}

// Item is a single storage item.
type Item struct {
	Key   []byte
	Value []byte
}

// Contract is the state of a single contract with its storage.
type Contract struct {
	Name    string         `json:"name"`
	State   state.Contract `json:"state"`
	Storage []Item         `json:"-"`
}

type files struct {
	contracts, storage io.ReadWriteCloser
}

func (x *files) close() {
	if x.storage != nil {
		_ = x.storage.Close()
	}
	if x.contracts != nil {
		_ = x.contracts.Close()
	}
}

func paths(dir string, id ID) (string, string) {
	prefix := filepath.Join(dir, id.String()+sep)
	return prefix + contractsSuffix, prefix + storageSuffix
}

// openFiles opens snapshot files for reading or creates them for writing.
// Creation fails with ErrExists if any of the files exists.
func openFiles(dir string, id ID, create bool) (files, error) {
	var (
		res            files
		err            error
		flag           = os.O_RDONLY
		perm           os.FileMode
		pContr, pStore = paths(dir, id)
	)

	if create {
		flag = os.O_CREATE | os.O_EXCL | os.O_WRONLY
		perm = 0600

		err = os.MkdirAll(dir, 0700)
		if err != nil {
			return res, fmt.Errorf("create snapshot directory: %w", err)
		}

		for _, p := range []string{pContr, pStore} {
			if _, err = os.Stat(p); err == nil {
				return res, fmt.Errorf("%w: %s", ErrExists, p)
			}
		}
	}

	res.contracts, err = os.OpenFile(pContr, flag, perm)
	if err != nil {
		return res, fmt.Errorf("open contract states file: %w", err)
	}

	res.storage, err = os.OpenFile(pStore, flag, perm)
	if err != nil {
		res.close()
		return res, fmt.Errorf("open storage items file: %w", err)
	}

	return res, nil
}
