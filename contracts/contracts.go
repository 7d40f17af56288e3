/*
Package contracts provides access to compiled ZeitDAO contracts.
*/
package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/nspcc-dev/neo-go/pkg/io"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
)

const (
	daoDir    = "dao"
	marketDir = "market"

	nefName      = "contract.nef"
	manifestName = "manifest.json"
)

// Contract groups information about a compiled Neo contract.
type Contract struct {
	NEF      nef.File
	Manifest manifest.Manifest
}

var (
	errInvalidNEF      = errors.New("invalid NEF")
	errInvalidManifest = errors.New("invalid manifest")

	// Deployment order matters: the market contract constructor takes the
	// DAO contract address.
	contractDirs = []string{
		daoDir,
		marketDir,
	}
)

// Get returns the current set of ZeitDAO contracts read from the given file
// system. Each contract lives in its own directory holding contract.nef and
// manifest.json produced by the compiler. Contracts are returned in the
// order they are supposed to be deployed starting from the DAO contract.
func Get(_fs fs.FS) ([]Contract, error) {
	var res = make([]Contract, 0, len(contractDirs))

	for i := range contractDirs {
		c, err := readContractFromDir(_fs, contractDirs[i])
		if err != nil {
			return nil, fmt.Errorf("read contract %s: %w", contractDirs[i], err)
		}

		res = append(res, c)
	}

	return res, nil
}

// GetFromDir is like [Get] but reads the contracts from the given directory
// of the local file system (usually the build tree produced by `make all`).
func GetFromDir(dir string) ([]Contract, error) {
	return Get(os.DirFS(dir))
}

func readContractFromDir(_fs fs.FS, dir string) (Contract, error) {
	var c Contract

	// fs.FS uses "/" even on Windows, so filepath.Join() is not applicable.
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
		return c, fmt.Errorf("%w: %w", errInvalidNEF, bReader.Err)
	}

	err = json.NewDecoder(fManifest).Decode(&c.Manifest)
	if err != nil {
		return c, fmt.Errorf("%w: %w", errInvalidManifest, err)
	}

	return c, nil
}
