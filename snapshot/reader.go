package snapshot

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// List returns IDs of all snapshots in the directory ordered by network
// and height. Missing directory has no snapshots.
func List(dir string) ([]ID, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot directory: %w", err)
	}

	var ids []ID
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		if id, ok := parseFileName(e.Name()); ok {
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Network != ids[j].Network {
			return ids[i].Network < ids[j].Network
		}
		return ids[i].Height < ids[j].Height
	})

	return ids, nil
}

// Read loads the snapshot with the given ID from the directory.
func Read(dir string, id ID) ([]Contract, error) {
	f, err := openFiles(dir, id, false)
	if err != nil {
		return nil, err
	}
	defer f.close()

	var res []Contract

	err = json.NewDecoder(f.contracts).Decode(&res)
	if err != nil {
		return nil, fmt.Errorf("decode contract states: %w", err)
	}

	index := make(map[string]int, len(res))
	for i := range res {
		index[res[i].Name] = i
	}

	r := csv.NewReader(f.storage)
	r.FieldsPerRecord = 3

	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return res, nil
			}
			return nil, fmt.Errorf("read storage item: %w", err)
		}

		i, ok := index[rec[0]]
		if !ok {
			return nil, fmt.Errorf("storage item of unknown contract '%s'", rec[0])
		}

		var it Item

		it.Key, err = encoding.DecodeString(rec[1])
		if err != nil {
			return nil, fmt.Errorf("decode storage item key: %w", err)
		}

		it.Value, err = encoding.DecodeString(rec[2])
		if err != nil {
			return nil, fmt.Errorf("decode storage item value: %w", err)
		}

		res[i].Storage = append(res[i].Storage, it)
	}
}

// Find returns contract with the given name.
func Find(cs []Contract, name string) (Contract, bool) {
	for i := range cs {
		if cs[i].Name == name {
			return cs[i], true
		}
	}

	return Contract{}, false
}
