package report

import (
	"database/sql"
	"fmt"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/datarecording"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/sim"
)

const createRunsSQL = `CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	trace           TEXT,
	cache_size      INTEGER,
	block_size      INTEGER,
	associativity   INTEGER,
	num_sets        INTEGER,
	address_bits    INTEGER,
	policy          TEXT,
	accesses        INTEGER,
	hits            INTEGER,
	misses          INTEGER,
	miss_compulsory INTEGER,
	miss_conflict   INTEGER,
	miss_capacity   INTEGER,
	hit_rate        REAL,
	access_table    TEXT
);`

const insertRunSQL = `INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// accessEntry is one row of a per-run access table. SQLite has no unsigned
// 64-bit integer, so 64-bit values are stored as their two's complement.
type accessEntry struct {
	Seq      int64
	Address  int64
	BlockID  int64
	SetIndex int64
	Tag      int64
	Kind     string
}

// Recorder stores simulation results in a SQLite database. Attached as a
// sim.Hook it also stores every access of the current run.
//
// Runs are appended to the runs table. The accesses of a run go to their own
// table, accesses_<run id>, written in batches by an Akita data recorder.
type Recorder struct {
	db   *sql.DB
	path string

	runID       string
	seq         int64
	accesses    datarecording.DataRecorder
	accessTable string

	err    error
	closed bool
}

// OpenRecorder opens (or creates) the database at path.
func OpenRecorder(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording database: %w", err)
	}

	if _, err := db.Exec(createRunsSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create recording tables in %s: %w", path, err)
	}

	r := &Recorder{
		db:    db,
		path:  path,
		runID: xid.New().String(),
	}

	atexit.Register(func() { _ = r.Close() })

	return r, nil
}

// Path returns the database path.
func (r *Recorder) Path() string {
	return r.path
}

// RunID returns the id the next RecordRun will use.
func (r *Recorder) RunID() string {
	return r.runID
}

// OnAccess implements sim.Hook. The first failure stops recording and is
// returned by the next Flush, RecordRun, or Close.
func (r *Recorder) OnAccess(o sim.Outcome) {
	if r.closed || r.err != nil {
		return
	}

	r.err = recording(func() {
		if r.accesses == nil {
			r.accessTable = "accesses_" + r.runID
			r.accesses = datarecording.NewDataRecorderWithDB(r.db)
			r.accesses.CreateTable(r.accessTable, accessEntry{})
		}

		r.seq++
		r.accesses.InsertData(r.accessTable, accessEntry{
			Seq:      r.seq,
			Address:  int64(o.Address),
			BlockID:  int64(o.BlockID),
			SetIndex: int64(o.Index),
			Tag:      int64(o.Tag),
			Kind:     o.Kind.String(),
		})
	})
}

// RecordRun stores the summary of a finished run under the current run id
// and starts a new run id for whatever is recorded next.
func (r *Recorder) RecordRun(tracePath string, run Run) (string, error) {
	if err := r.Flush(); err != nil {
		return "", err
	}

	if r.closed {
		return "", fmt.Errorf("failed to record run: recorder for %s is closed", r.path)
	}

	g := run.Geometry
	st := run.Stats
	runID := r.runID

	_, err := r.db.Exec(insertRunSQL,
		runID,
		tracePath,
		int64(g.CacheSize()),
		int64(g.BlockSize()),
		g.Associativity(),
		g.NumSets(),
		g.AddressBits(),
		run.Policy.String(),
		int64(st.Accesses),
		int64(st.Hits),
		int64(st.Misses),
		int64(st.MissCompulsory),
		int64(st.MissConflict),
		int64(st.MissCapacity),
		st.HitRate(),
		r.accessTable,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}

	r.runID = xid.New().String()
	r.seq = 0
	r.accesses = nil
	r.accessTable = ""

	return runID, nil
}

// Flush writes buffered accesses to the database.
func (r *Recorder) Flush() error {
	if r.err != nil {
		return r.err
	}

	if r.closed || r.accesses == nil {
		return nil
	}

	r.err = recording(r.accesses.Flush)

	return r.err
}

// Close flushes and closes the database. Closing twice is a no-op.
func (r *Recorder) Close() error {
	if r.closed {
		return r.err
	}

	flushErr := r.Flush()
	r.closed = true

	if err := r.db.Close(); err != nil && flushErr == nil {
		return fmt.Errorf("failed to close recording database: %w", err)
	}

	return flushErr
}

// recording runs f and turns a panic of the data recorder into an error.
func recording(f func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("failed to record accesses: %v", p)
		}
	}()

	f()

	return nil
}
