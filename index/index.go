// Package index maintains a sqlite database of scanned sequence files:
// per-file statistics, per-record entries, and packed membership sketches
// that answer "which indexed file might contain this record?" without
// re-reading the files.
package index

import (
	"database/sql"
	"io"
	"time"

	"github.com/joiningdata/seqio/dedup"
	"github.com/joiningdata/seqio/formats"

	// only support sqlite3
	_ "github.com/mattn/go-sqlite3"
)

// A Database of indexed sequence files.
type Database struct {
	db *sql.DB

	// packed id-membership sketches keyed by file_id, loaded at Open
	idSketches map[int64]*dedup.Sketch
}

// FileInfo describes one indexed sequence file.
type FileInfo struct {
	ID      int64
	Path    string
	Format  string
	Records int
	Bases   int64
}

// FileHit reports a file that contains a requested record.
type FileHit struct {
	// Path of the indexed file.
	Path string

	// Records in the file overall.
	Records int

	// Ordinal position of the matched record in the file, starting at 1.
	// If the identifier occurs several times, the first occurrence.
	Ordinal int

	// Length of the matched record's sequence.
	Length int
}

// Open a sequence index database, creating the schema if necessary,
// and load its membership sketches into memory.
func Open(filename string) (*Database, error) {
	sdb, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}
	x := &Database{db: sdb, idSketches: make(map[int64]*dedup.Sketch)}
	if err := x.init(); err != nil {
		sdb.Close()
		return nil, err
	}

	rows, err := sdb.Query("SELECT file_id, sketch FROM file_sketches WHERE subset='ids';")
	if err != nil {
		sdb.Close()
		return nil, err
	}
	for rows.Next() {
		var fid int64
		var raw []byte
		if err = rows.Scan(&fid, &raw); err != nil {
			rows.Close()
			sdb.Close()
			return nil, err
		}
		sk := dedup.New(0)
		if err = sk.Unpack(raw); err != nil {
			rows.Close()
			sdb.Close()
			return nil, err
		}
		x.idSketches[fid] = sk
	}
	rows.Close()
	return x, nil
}

func (x *Database) init() error {
	_, err := x.db.Exec(`CREATE TABLE IF NOT EXISTS files (
				file_id integer primary key,
				path varchar,
				format varchar,
				records integer,
				bases integer,
				last_update datetime
			);`)
	if err != nil {
		return err
	}
	_, err = x.db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS file_paths_uqx ON files (path);`)
	if err != nil {
		return err
	}
	_, err = x.db.Exec(`CREATE TABLE IF NOT EXISTS records (
				file_id integer,
				record_id varchar,
				ordinal integer,
				length integer,
				gc real
			);`)
	if err != nil {
		return err
	}
	_, err = x.db.Exec(`CREATE INDEX IF NOT EXISTS record_ids_x ON records (record_id);`)
	if err != nil {
		return err
	}
	_, err = x.db.Exec(`CREATE TABLE IF NOT EXISTS file_sketches (
				file_id integer,
				subset varchar,
				sketch blob,
				element_count integer,
				primary key (file_id, subset)
			);`)
	return err
}

// Close the underlying database.
func (x *Database) Close() error {
	return x.db.Close()
}

// IndexFile reads every record from r and records it in the index under
// the given path, replacing any previous entries for that path. The format
// name is recorded for Auto readers after detection.
func (x *Database) IndexFile(path string, r formats.Reader) (*FileInfo, error) {
	fid, created, err := x.getOrCreateFile(path)
	if err != nil {
		return nil, err
	}
	// a failed ingest must not leave a half-filled files row behind
	committed := false
	defer func() {
		if !committed && created {
			x.db.Exec("DELETE FROM files WHERE file_id=?;", fid)
		}
	}()

	tx, err := x.db.Begin()
	if err != nil {
		return nil, err
	}
	if _, err = tx.Exec("DELETE FROM records WHERE file_id=?;", fid); err != nil {
		tx.Rollback()
		return nil, err
	}
	ins, err := tx.Prepare(`INSERT INTO records (file_id, record_id, ordinal, length, gc)
			VALUES (?,?,?,?,?);`)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	info := &FileInfo{ID: fid, Path: path}
	ids := dedup.New(0)
	seqs := dedup.New(0)

	rec, err := r.Next()
	for err == nil {
		info.Records++
		info.Bases += int64(len(rec.Seq))

		gc := 0
		for _, b := range rec.Seq {
			switch b {
			case 'G', 'g', 'C', 'c':
				gc++
			}
		}
		gcf := 0.0
		if len(rec.Seq) > 0 {
			gcf = float64(gc) / float64(len(rec.Seq))
		}
		if _, err = ins.Exec(fid, rec.ID, info.Records, len(rec.Seq), gcf); err != nil {
			tx.Rollback()
			return nil, err
		}
		ids.Add([]byte(rec.ID))
		seqs.Add(rec.Seq)

		rec, err = r.Next()
	}
	if err != io.EOF {
		tx.Rollback()
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	if a, ok := r.(*formats.Auto); ok {
		info.Format = a.FormatName()
	}
	_, err = x.db.Exec(`UPDATE files SET format=?, records=?, bases=?, last_update=? WHERE file_id=?;`,
		info.Format, info.Records, info.Bases, time.Now(), fid)
	if err != nil {
		return nil, err
	}

	for subset, sk := range map[string]*dedup.Sketch{"ids": ids, "seqs": seqs} {
		_, err = x.db.Exec(`INSERT INTO file_sketches (file_id, subset, sketch, element_count)
				VALUES (?,?,?,?) ON CONFLICT(file_id, subset) DO UPDATE
				SET sketch=excluded.sketch, element_count=excluded.element_count;`,
			fid, subset, sk.Pack(), sk.Count())
		if err != nil {
			return nil, err
		}
	}
	x.idSketches[fid] = ids
	committed = true
	return info, nil
}

func (x *Database) getOrCreateFile(path string) (fid int64, created bool, err error) {
	err = x.db.QueryRow("SELECT file_id FROM files WHERE path=?;", path).Scan(&fid)
	if err == sql.ErrNoRows {
		res, err2 := x.db.Exec(`INSERT INTO files (path) VALUES (?);`, path)
		if err2 == nil {
			fid, err2 = res.LastInsertId()
			return fid, true, err2
		}
		err = err2
	}
	return fid, false, err
}

// Files lists every indexed file.
func (x *Database) Files() ([]*FileInfo, error) {
	rows, err := x.db.Query("SELECT file_id, path, format, records, bases FROM files;")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*FileInfo
	for rows.Next() {
		fi := &FileInfo{}
		var format sql.NullString
		// older databases may hold rows from interrupted ingests with
		// NULL counts
		var records, bases sql.NullInt64
		if err = rows.Scan(&fi.ID, &fi.Path, &format, &records, &bases); err != nil {
			return nil, err
		}
		fi.Format = format.String
		fi.Records = int(records.Int64)
		fi.Bases = bases.Int64
		res = append(res, fi)
	}
	return res, rows.Err()
}

// FindRecord reports which indexed files contain a record with the given
// identifier. The in-memory sketches prefilter the candidate files; every
// surviving candidate is confirmed against the record table, so a sketch
// false positive never reaches the caller.
func (x *Database) FindRecord(id string) ([]*FileHit, error) {
	var hits []*FileHit
	for fid, sk := range x.idSketches {
		maybe, _ := sk.Has([]byte(id))
		if !maybe {
			continue
		}

		hit := &FileHit{}
		err := x.db.QueryRow("SELECT path, records FROM files WHERE file_id=?;", fid).
			Scan(&hit.Path, &hit.Records)
		if err != nil {
			return nil, err
		}

		err = x.db.QueryRow(`SELECT ordinal, length FROM records
				WHERE file_id=? AND record_id=? ORDER BY ordinal LIMIT 1;`, fid, id).
			Scan(&hit.Ordinal, &hit.Length)
		if err == sql.ErrNoRows {
			// sketch false positive
			continue
		}
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
