package snapshot

import (
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
)

// Writer creates a snapshot. Output files:
//
//	'<network>-<height>-contracts.json': JSON array of contract states
//	'<network>-<height>-storage.csv': CSV of contract storages
//
// Storage CSV records are 'name,key,value' where binary key and value are
// base64-encoded.
type Writer struct {
	files

	contracts []Contract
	csv       *csv.Writer
}

// Create returns Writer of the new snapshot in the given directory. It fails
// with ErrExists if the snapshot with the same ID is already there. Writer
// must be closed after use.
func Create(dir string, id ID) (*Writer, error) {
	f, err := openFiles(dir, id, true)
	if err != nil {
		return nil, err
	}

	return &Writer{
		files: f,
		csv:   csv.NewWriter(f.storage),
	}, nil
}

// AddContract adds contract state to the snapshot and returns function
// writing items of its storage. Snapshot is written on Flush.
func (x *Writer) AddContract(name string, st state.Contract) func(key, value []byte) error {
	x.contracts = append(x.contracts, Contract{Name: name, State: st})

	return func(key, value []byte) error {
		err := x.csv.Write([]string{name, encoding.EncodeToString(key), encoding.EncodeToString(value)})
		if err != nil {
			return fmt.Errorf("write storage item of '%s': %w", name, err)
		}

		return nil
	}
}

// Flush writes accumulated contract states and storage items.
func (x *Writer) Flush() error {
	enc := json.NewEncoder(x.files.contracts)
	enc.SetIndent("", " ")

	err := enc.Encode(x.contracts)
	if err != nil {
		return fmt.Errorf("encode contract states: %w", err)
	}

	x.csv.Flush()

	err = x.csv.Error()
	if err != nil {
		return fmt.Errorf("flush storage items: %w", err)
	}

	return nil
}

// Close releases underlying files.
func (x *Writer) Close() {
	x.close()
}
