package contracts

import (
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/stretchr/testify/require"
)

func TestTagged(t *testing.T) {
	names, err := Tagged("all")
	require.NoError(t, err)
	require.Equal(t, []string{PriceFeed, FundMe}, names)

	names, err = Tagged("mocks")
	require.NoError(t, err)
	require.Equal(t, []string{PriceFeed}, names)

	// Callers must not be able to corrupt the tag table.
	names[0] = "corrupted"
	names, err = Tagged("mocks")
	require.NoError(t, err)
	require.Equal(t, []string{PriceFeed}, names)

	_, err = Tagged("unknown")
	require.Error(t, err)
}

func TestCompile(t *testing.T) {
	for _, name := range []string{FundMe, PriceFeed} {
		t.Run(name, func(t *testing.T) {
			c, err := Compile(name, "0.102.0")
			require.NoError(t, err)
			require.NotEmpty(t, c.NEF.Script)
			require.Equal(t, "neo-go-0.102.0", c.NEF.Header.Compiler)
			require.NotEmpty(t, c.Manifest.Name)
			require.NotNil(t, c.Manifest.ABI.GetMethod("version", 0))
		})
	}

	_, err := Compile("missing", "0.102.0")
	require.Error(t, err)
}

func TestGetMissingFiles(t *testing.T) {
	_fs := fstest.MapFS{}

	// Missing NEF
	_, err := Read(_fs, FundMe)
	require.Error(t, err)

	// Missing manifest.
	_fs[FundMe+"/"+nefName] = &fstest.MapFile{}
	_, err = Read(_fs, FundMe)
	require.Error(t, err)
}

func TestReadInvalidFormat(t *testing.T) {
	var (
		_fs          = fstest.MapFS{}
		nefPath      = FundMe + "/" + nefName
		manifestPath = FundMe + "/" + manifestName
	)

	_, validNEF := anyValidNEF(t)
	_, validManifest := anyValidManifest(t, "FundMe")

	_fs[nefPath] = &fstest.MapFile{Data: validNEF}
	_fs[manifestPath] = &fstest.MapFile{Data: validManifest}

	cs, err := Read(_fs, FundMe)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	require.Equal(t, "FundMe", cs[0].Manifest.Name)

	_fs[nefPath] = &fstest.MapFile{Data: []byte("not a NEF")}
	_fs[manifestPath] = &fstest.MapFile{Data: validManifest}

	_, err = Read(_fs, FundMe)
	require.ErrorIs(t, err, errInvalidNEF)

	_fs[nefPath] = &fstest.MapFile{Data: validNEF}
	_fs[manifestPath] = &fstest.MapFile{Data: []byte("not a manifest")}

	_, err = Read(_fs, FundMe)
	require.ErrorIs(t, err, errInvalidManifest)
}

func anyValidNEF(tb testing.TB) (nef.File, []byte) {
	script := make([]byte, 32)

	_nef, err := nef.NewFile(script)
	require.NoError(tb, err)

	bNEF, err := _nef.Bytes()
	require.NoError(tb, err)

	return *_nef, bNEF
}

func anyValidManifest(tb testing.TB, name string) (manifest.Manifest, []byte) {
	_manifest := manifest.NewManifest(name)

	jManifest, err := json.Marshal(_manifest)
	require.NoError(tb, err)

	return *_manifest, jManifest
}
