package eventlog

import (
	"database/sql"
	"strings"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// Journal is a sink that appends event lines to a SQLite database,
// keeping diagnosis data around after the process exits.
// It implements io.Writer so it can be passed straight to Log.Start.
type Journal struct {
	db         *sql.DB
	writeMutex sync.Mutex
}

func OpenJournal(filename string) (*Journal, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec("CREATE TABLE IF NOT EXISTS events (id INTEGER PRIMARY KEY AUTOINCREMENT, at INTEGER, line TEXT)")
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Write(p []byte) (int, error) {
	j.writeMutex.Lock()
	defer j.writeMutex.Unlock()
	line := strings.TrimRight(string(p), "\n")
	_, err := j.db.Exec("INSERT INTO events (at, line) VALUES (?, ?)", time.Now().Unix(), line)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// Replay calls the given callback for each recorded event line,
// oldest first.
func (j *Journal) Replay(cb func(at time.Time, line string)) error {
	rows, err := j.db.Query("SELECT at, line FROM events ORDER BY id ASC")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var at int64
		var line string
		if err := rows.Scan(&at, &line); err != nil {
			return err
		}
		cb(time.Unix(at, 0), line)
	}
	return rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
