package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/hailam/uttt/internal/agent"
	"github.com/pkg/errors"
)

// ModelInfo describes a stored model.
type ModelInfo struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	FirstLayout  []int        `json:"first_layout"`
	SecondLayout []int        `json:"second_layout"`
	Params       agent.Params `json:"params"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("model name is empty")
	}
	return nil
}

// SaveModel stores a under name, replacing any previous version.
// The model keeps its ID and creation time across saves.
func (s *Storage) SaveModel(name string, a *agent.Agent) (*ModelInfo, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	blob, err := a.MarshalBinary()
	if err != nil {
		return nil, errors.Wrapf(err, "encode model %q", name)
	}

	now := time.Now()
	info := &ModelInfo{}
	err = s.db.Update(func(txn *badger.Txn) error {
		err := getJSON(txn, prefixMeta+name, info)
		if err == badger.ErrKeyNotFound {
			info.ID = uuid.New()
			info.CreatedAt = now
		} else if err != nil {
			return err
		}

		info.Name = name
		info.FirstLayout = a.FirstPass.Layout()
		info.SecondLayout = a.SecondPass.Layout()
		info.Params = a.Params
		info.UpdatedAt = now

		if err := setJSON(txn, prefixMeta+name, info); err != nil {
			return err
		}
		return txn.Set([]byte(prefixModel+name), blob)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "save model %q", name)
	}

	s.log.WithField("model", name).WithField("id", info.ID).Debug("model saved")
	return info, nil
}

// LoadModel loads the model stored under name.
func (s *Storage) LoadModel(name string) (*agent.Agent, error) {
	a := &agent.Agent{}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixModel + name))
		if err != nil {
			return err
		}
		return item.Value(a.UnmarshalBinary)
	})
	if err == badger.ErrKeyNotFound {
		return nil, errors.Wrapf(ErrModelNotFound, "load %q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load model %q", name)
	}
	return a, nil
}

// Info returns the metadata of the model stored under name.
func (s *Storage) Info(name string) (*ModelInfo, error) {
	info := &ModelInfo{}
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixMeta+name, info)
	})
	if err == badger.ErrKeyNotFound {
		return nil, errors.Wrapf(ErrModelNotFound, "info %q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "model info %q", name)
	}
	return info, nil
}

// ListModels returns the metadata of every stored model, ordered by name.
func (s *Storage) ListModels() ([]ModelInfo, error) {
	var models []ModelInfo
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixMeta)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var info ModelInfo
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &info)
			})
			if err != nil {
				return errors.Wrapf(err, "decode %s", it.Item().Key())
			}
			models = append(models, info)
		}
		return nil
	})
	return models, errors.Wrap(err, "list models")
}

// DeleteModel removes a model together with its statistics.
func (s *Storage) DeleteModel(name string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(prefixMeta + name)); err != nil {
			return err
		}
		for _, prefix := range []string{prefixMeta, prefixModel, prefixStats} {
			if err := txn.Delete([]byte(prefix + name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err == badger.ErrKeyNotFound {
		return errors.Wrapf(ErrModelNotFound, "delete %q", name)
	}
	return errors.Wrapf(err, "delete model %q", name)
}

// ExportModel writes a to a standalone file at path.
func ExportModel(a *agent.Agent, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create export file")
	}
	w := bufio.NewWriter(f)
	if err := a.Encode(w); err != nil {
		f.Close()
		return errors.Wrapf(err, "export to %s", path)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "export to %s", path)
	}
	return errors.Wrapf(f.Close(), "export to %s", path)
}

// ImportModel reads a model file written by ExportModel.
func ImportModel(path string) (*agent.Agent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open model file")
	}
	defer f.Close()

	a, err := agent.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "import %s", path)
	}
	return a, nil
}
