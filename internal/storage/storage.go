package storage

import (
	"encoding/json"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Storage key prefixes. Each is followed by a model name.
const (
	prefixMeta  = "meta/"
	prefixModel = "model/"
	prefixStats = "stats/"
)

// ErrModelNotFound is returned when no model is stored under a name.
var ErrModelNotFound = errors.New("model not found")

// Storage wraps BadgerDB for persistent storage of models and their statistics.
type Storage struct {
	db  *badger.DB
	log *logrus.Entry
}

// badgerLogger routes badger's chatter through logrus, demoting its info
// messages to debug.
type badgerLogger struct {
	*logrus.Entry
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.Entry.Debugf(format, args...)
}

// Open opens the database in dir. An empty dir selects the platform data directory.
func Open(dir string, log *logrus.Entry) (*Storage, error) {
	if dir == "" {
		var err error
		if dir, err = GetDatabaseDir(); err != nil {
			return nil, err
		}
	}
	return open(badger.DefaultOptions(dir), log)
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory(log *logrus.Entry) (*Storage, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), log)
}

func open(opts badger.Options, log *logrus.Entry) (*Storage, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	opts = opts.WithLogger(badgerLogger{log.WithField("component", "badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open database %q", opts.Dir)
	}
	return &Storage{db: db, log: log}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func getJSON(txn *badger.Txn, key string, v interface{}) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return txn.Set([]byte(key), data)
}
