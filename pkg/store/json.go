// Package store persists catalog state as one JSON document per catalog.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/oladoye/sitesync/pkg/model"
)

// JSONStore keeps each catalog in <dir>/<name>.json. Saves are atomic from a
// reader's point of view: the document is written to a temporary file in the
// same directory and renamed into place.
type JSONStore struct {
	dir string
}

func NewJSONStore(dir string) (*JSONStore, error) {
	log.Infof("opening data directory %q", dir)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "could not mkdir data dir")
	}

	return &JSONStore{dir: dir}, nil
}

// Load reads the named catalog, returning an empty well-formed store if
// nothing has been persisted yet. A document that fails to parse surfaces as
// model.ErrCorruptStore and is never overwritten with an empty state.
func (s *JSONStore) Load(name string) (*model.Store, error) {
	path := s.path(name)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("no state for catalog %q yet, starting empty", name)
			return model.NewStore(""), nil
		}

		return nil, errors.Wrapf(err, "failed to read store file %q", path)
	}

	st := &model.Store{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, errors.Wrapf(model.ErrCorruptStore, "failed to parse %q: %v", path, err)
	}

	return st, nil
}

// Save atomically replaces the named catalog's document.
func (s *JSONStore) Save(name string, st *model.Store) error {
	path := s.path(name)

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to serialize store %q", name)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "failed to write store %q", name)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "failed to close temp file for store %q", name)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "failed to replace store file %q", path)
	}

	log.Debugf("saved %d item(s) to %q", len(st.Items), path)
	return nil
}

func (s *JSONStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}
