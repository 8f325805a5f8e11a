package snapshot

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	id := ID{Network: "testnet", Height: 1234}

	w, err := Create(dir, id)
	require.NoError(t, err)

	var st state.Contract
	st.ID = 5
	st.Hash = util.Uint160{1, 2, 3}
	st.Manifest.Name = "FundMe"

	write := w.AddContract("fundme", st)
	require.NoError(t, write([]byte{'o'}, []byte{4, 5, 6}))
	require.NoError(t, write([]byte{'a', 1}, []byte{7}))

	w.AddContract("pricefeed", state.Contract{})

	require.NoError(t, w.Flush())
	w.Close()

	_, err = Create(dir, id)
	require.ErrorIs(t, err, ErrExists)

	cs, err := Read(dir, id)
	require.NoError(t, err)
	require.Len(t, cs, 2)

	c, ok := Find(cs, "fundme")
	require.True(t, ok)
	require.EqualValues(t, 5, c.State.ID)
	require.Equal(t, st.Hash, c.State.Hash)
	require.Equal(t, "FundMe", c.State.Manifest.Name)
	require.Equal(t, []Item{
		{Key: []byte{'o'}, Value: []byte{4, 5, 6}},
		{Key: []byte{'a', 1}, Value: []byte{7}},
	}, c.Storage)

	c, ok = Find(cs, "pricefeed")
	require.True(t, ok)
	require.Empty(t, c.Storage)

	_, ok = Find(cs, "nns")
	require.False(t, ok)
}

func TestParseID(t *testing.T) {
	id := ID{Network: "testnet", Height: 1234}

	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	for _, s := range []string{"", "testnet", "-12", "testnet-", "testnet-x", "test-net-12", "testnet-4294967296"} {
		_, err := ParseID(s)
		require.Error(t, err, s)
	}
}

func TestList(t *testing.T) {
	ids, err := List(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.Empty(t, ids)

	dir := t.TempDir()

	for _, id := range []ID{
		{Network: "testnet", Height: 20},
		{Network: "localhost", Height: 7},
		{Network: "testnet", Height: 3},
	} {
		w, err := Create(dir, id)
		require.NoError(t, err)
		require.NoError(t, w.Flush())
		w.Close()
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), nil, 0600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0700))

	ids, err = List(dir)
	require.NoError(t, err)
	require.Equal(t, []ID{
		{Network: "localhost", Height: 7},
		{Network: "testnet", Height: 3},
		{Network: "testnet", Height: 20},
	}, ids)
}

func TestReadMissing(t *testing.T) {
	_, err := Read(t.TempDir(), ID{Network: "testnet", Height: 1})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeFundMe(t *testing.T) {
	var (
		owner     = util.Uint160{1}
		priceFeed = util.Uint160{2}
		funderA   = util.Uint160{3}
		funderB   = util.Uint160{4}
	)

	funders, err := stackitem.Serialize(stackitem.NewArray([]stackitem.Item{
		stackitem.NewByteArray(funderB.BytesBE()),
		stackitem.NewByteArray(funderA.BytesBE()),
	}))
	require.NoError(t, err)

	items := []Item{
		{Key: []byte{ownerKey}, Value: owner.BytesBE()},
		{Key: []byte{priceFeedKey}, Value: priceFeed.BytesBE()},
		{Key: []byte{fundersKey}, Value: funders},
		{Key: append([]byte{amountPrefix}, funderA.BytesBE()...), Value: bigint.ToBytes(big.NewInt(10_0000_0000))},
		{Key: append([]byte{amountPrefix}, funderB.BytesBE()...), Value: bigint.ToBytes(big.NewInt(2_500_000))},
	}

	s, err := DecodeFundMe(items)
	require.NoError(t, err)
	require.Equal(t, owner, s.Owner)
	require.Equal(t, priceFeed, s.PriceFeed)
	require.Len(t, s.Funders, 2)
	require.Equal(t, funderB, s.Funders[0].Address)
	require.EqualValues(t, 2_500_000, s.Funders[0].Amount.Int64())
	require.Equal(t, funderA, s.Funders[1].Address)
	require.EqualValues(t, 10_0000_0000, s.Funders[1].Amount.Int64())
	require.EqualValues(t, 10_0250_0000, s.Total().Int64())

	t.Run("after withdrawal", func(t *testing.T) {
		s, err := DecodeFundMe(items[:2])
		require.NoError(t, err)
		require.Empty(t, s.Funders)
		require.Zero(t, s.Total().Sign())
	})
	t.Run("missing amount", func(t *testing.T) {
		_, err := DecodeFundMe(items[:4])
		require.Error(t, err)
	})
	t.Run("unknown key", func(t *testing.T) {
		_, err := DecodeFundMe(append(items[:2:2], Item{Key: []byte{'x'}}))
		require.Error(t, err)
	})
	t.Run("invalid funder list", func(t *testing.T) {
		_, err := DecodeFundMe([]Item{{Key: []byte{fundersKey}, Value: []byte{0xff}}})
		require.Error(t, err)
	})
}
