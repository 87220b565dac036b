/*
Package catalog records export sessions in a small sqlite database so the
origin of every exported image can be traced back to its source file and
record index.
*/
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Session describes one export run
type Session struct {
	ID      string    `json:"id"`
	Source  string    `json:"source"`
	Output  string    `json:"output"`
	Format  string    `json:"format"`
	Magic   uint32    `json:"magic"`
	Count   uint32    `json:"count"`
	Rows    uint32    `json:"rows"`
	Cols    uint32    `json:"cols"`
	Created time.Time `json:"created"`
}

// Sample describes one exported image
type Sample struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	SHA1     string `json:"sha1"`
}

// Catalog is the export catalog
type Catalog struct {
	db *sql.DB
}

// Open opens, creating if necessary, the catalog stored in file
func Open(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS session (id TEXT PRIMARY KEY NOT NULL, source TEXT NOT NULL, output TEXT NOT NULL, format TEXT NOT NULL, magic INTEGER NOT NULL, count INTEGER NOT NULL, rows INTEGER NOT NULL, cols INTEGER NOT NULL, created INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS sample (session_id TEXT NOT NULL, idx INTEGER NOT NULL, filename TEXT NOT NULL, sha1 TEXT NOT NULL, PRIMARY KEY(session_id, idx), FOREIGN KEY(session_id) REFERENCES session(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the catalog
func (c *Catalog) Close() error {
	return c.db.Close()
}

// BeginSession records a new session and returns it with its ID and
// creation time filled in
func (c *Catalog) BeginSession(s Session) (Session, error) {
	s.ID = uuid.NewString()
	s.Created = time.Now().UTC().Truncate(time.Second)

	if _, err := c.db.Exec("INSERT INTO session (id, source, output, format, magic, count, rows, cols, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", s.ID, s.Source, s.Output, s.Format, s.Magic, s.Count, s.Rows, s.Cols, s.Created.Unix()); err != nil {
		return Session{}, err
	}

	return s, nil
}

// AddSample records an exported image against a session. Recording the same
// index twice replaces the earlier row.
func (c *Catalog) AddSample(session string, s Sample) error {
	if _, err := c.db.Exec("INSERT OR REPLACE INTO sample (session_id, idx, filename, sha1) VALUES (?, ?, ?, ?)", session, s.Index, s.Filename, s.SHA1); err != nil {
		return err
	}
	return nil
}

// Session returns the session with the given ID, or nil if there is none
func (c *Catalog) Session(id string) (*Session, error) {
	var s Session
	var created int64
	switch err := c.db.QueryRow("SELECT id, source, output, format, magic, count, rows, cols, created FROM session WHERE id = ?", id).Scan(&s.ID, &s.Source, &s.Output, &s.Format, &s.Magic, &s.Count, &s.Rows, &s.Cols, &created); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		s.Created = time.Unix(created, 0).UTC()
		return &s, nil
	default:
		return nil, err
	}
}

// Sessions returns every session, oldest first
func (c *Catalog) Sessions() ([]Session, error) {
	rows, err := c.db.Query("SELECT id, source, output, format, magic, count, rows, cols, created FROM session ORDER BY created, rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var created int64
		if err := rows.Scan(&s.ID, &s.Source, &s.Output, &s.Format, &s.Magic, &s.Count, &s.Rows, &s.Cols, &created); err != nil {
			return nil, err
		}
		s.Created = time.Unix(created, 0).UTC()
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// Samples returns the samples recorded against a session in index order
func (c *Catalog) Samples(session string) ([]Sample, error) {
	rows, err := c.db.Query("SELECT idx, filename, sha1 FROM sample WHERE session_id = ? ORDER BY idx", session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.Index, &s.Filename, &s.SHA1); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	return samples, rows.Err()
}
