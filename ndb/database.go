package ndb

import (
	"log/slog"
	"runtime"

	"github.com/google/uuid"

	"github.com/roach88/ndb/internal/boundary"
	"github.com/roach88/ndb/internal/handle"
	"github.com/roach88/ndb/internal/native"
)

// Database is an open note database.
type Database struct {
	guard   *handle.Guard
	log     *slog.Logger
	session string
}

// Open opens or creates the database stored in directory path.
func Open(path string, opts ...Option) (*Database, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	session := uuid.Must(uuid.NewV7()).String()
	log := o.logger.With("db_session", session)

	id, err := boundary.Call("open", func() int64 {
		return native.Open(path, native.Config{NoteCacheSize: o.noteCacheSize})
	})
	if err != nil {
		return nil, translate("open", CodeOpenFailure, err)
	}
	if id == 0 {
		return nil, failure(CodeOpenFailure, "open", "cannot open database at "+path)
	}

	db := &Database{log: log, session: session}
	db.guard = handle.NewGuard(handle.Handle{ID: id, Kind: handle.KindDatabase}, func(h handle.Handle) {
		db.teardown("close", func() { native.Close(h.ID) })
		db.log.Debug("database closed")
	})
	log.Debug("database opened", "path", path)
	return db, nil
}

// Session returns the id attached to this database's log records.
func (db *Database) Session() string {
	return db.session
}

// IsOpen reports whether Close has not been called.
func (db *Database) IsOpen() bool {
	return db.guard.IsOpen()
}

// Close releases the database. Only the first call has an effect; Close
// waits for calls already in progress and never fails.
func (db *Database) Close() error {
	db.guard.Close()
	return nil
}

// teardown runs a destroy call; a fault is logged, never returned.
func (db *Database) teardown(op string, fn func()) {
	boundary.TeardownLog(db.log, op, fn)
}

// use pins the database handle for the duration of fn.
func (db *Database) use(op string, fn func(dbh int64) error) error {
	err := db.guard.Use(func(h handle.Handle) error {
		return fn(h.ID)
	})
	return translate(op, CodeQueryFailure, err)
}

// ProcessEvent submits one JSON event. Events that fail validation are
// dropped by the engine without error; a payload that is not JSON at all,
// including an empty one, fails with PROCESS_FAILURE.
func (db *Database) ProcessEvent(json string) error {
	const op = "processEvent"
	return db.use(op, func(dbh int64) error {
		ok, err := boundary.Call(op, func() bool {
			return native.ProcessEvent(dbh, []byte(json))
		})
		if err != nil {
			return translate(op, CodeProcessFailure, err)
		}
		if !ok {
			return failure(CodeProcessFailure, op, "engine rejected event")
		}
		return nil
	})
}

// ProcessEvents submits newline-delimited JSON events and returns how
// many were accepted.
func (db *Database) ProcessEvents(ldjson string) (int, error) {
	const op = "processEvents"
	var count int32
	err := db.use(op, func(dbh int64) error {
		n, err := boundary.Call(op, func() int32 {
			return native.ProcessEvents(dbh, []byte(ldjson))
		})
		if err != nil {
			return translate(op, CodeProcessFailure, err)
		}
		if n < 0 {
			return failure(CodeProcessFailure, op, "engine rejected batch")
		}
		count = n
		return nil
	})
	return int(count), err
}

// BeginTransaction opens a read transaction.
//
// The engine allows one open transaction per OS thread; the caller must
// close it before beginning another on the same thread. View handles this.
func (db *Database) BeginTransaction() (*Transaction, error) {
	const op = "beginTransaction"
	var txn *Transaction
	err := db.use(op, func(dbh int64) error {
		id, err := boundary.Call(op, func() int64 {
			return native.BeginTransaction(dbh)
		})
		if err != nil {
			return translate(op, CodeTransactionFailure, err)
		}
		if id == 0 {
			return failure(CodeTransactionFailure, op, "engine could not open transaction")
		}
		txn = &Transaction{}
		txn.guard = handle.NewGuard(handle.Handle{ID: id, Kind: handle.KindTransaction}, func(h handle.Handle) {
			db.teardown("endTransaction", func() { native.EndTransaction(h.ID) })
		})
		return nil
	})
	return txn, err
}

// View runs fn inside a transaction and closes it on every exit path,
// including a panic in fn. The calling goroutine is locked to its OS
// thread while fn runs.
func (db *Database) View(fn func(txn *Transaction) error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	txn, err := db.BeginTransaction()
	if err != nil {
		return err
	}
	defer txn.Close()

	return fn(txn)
}
