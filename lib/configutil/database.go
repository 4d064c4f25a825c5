package configutil

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Database opens either a local sqlite file or a remote libsql/turso
// database depending on which fields are set.
type Database struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Database) OpenDB() (*sql.DB, error) {
	if config.Url == "" {
		if config.File == "" {
			return nil, fmt.Errorf("neither a database file nor a url was specified")
		}
		if config.File != ":memory:" {
			os.MkdirAll(filepath.Dir(config.File), 0777)
		}
		db, err := sql.Open("sqlite", config.File)
		if err != nil {
			return nil, err
		}
		// sqlite falls over under concurrent writers without this, see
		// https://stackoverflow.com/questions/35804884
		db.SetMaxOpenConns(1)
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	values := url.Values{}
	if config.AuthToken != "" {
		values.Add("authToken", config.AuthToken)
	}
	db, err := sql.Open("libsql", config.Url+"?"+values.Encode())
	if err != nil {
		return nil, err
	}
	return db, nil
}
