package common

import (
	"bytes"
	"database/sql"
	"math/big"
	"text/template"

	"github.com/golang/glog"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// WalletAccountKey is the kv slot holding the last connected wallet address.
const WalletAccountKey = "walletAccount"

const chainIDKey = "chainID"

type DB struct {
	dbh *sql.DB

	// prepared statements
	selectKV *sql.Stmt
	upsertKV *sql.Stmt
	deleteKV *sql.Stmt
}

var schema = `
	CREATE TABLE IF NOT EXISTS kv (
		key STRING PRIMARY KEY,
		value STRING,
		updatedAt STRING DEFAULT CURRENT_TIMESTAMP
	);
`

func InitDB(dbPath string) (*DB, error) {
	d := DB{}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		glog.Error("Unable to open DB ", dbPath, err)
		return nil, err
	}
	d.dbh = db
	schemaBuf := new(bytes.Buffer)
	tmpl := template.Must(template.New("schema").Parse(schema))
	tmpl.Execute(schemaBuf, nil)
	_, err = db.Exec(schemaBuf.String())
	if err != nil {
		glog.Error("Error initializing schema ", err)
		d.Close()
		return nil, err
	}

	stmt, err := db.Prepare("SELECT value FROM kv WHERE key=?")
	if err != nil {
		glog.Error("Unable to prepare selectkv stmt ", err)
		d.Close()
		return nil, err
	}
	d.selectKV = stmt

	stmt, err = db.Prepare(`
	INSERT INTO kv(key, value, updatedAt) VALUES(?1, ?2, datetime())
	ON CONFLICT(key) DO UPDATE SET value = ?2, updatedAt = datetime()
	`)
	if err != nil {
		glog.Error("Unable to prepare upsertkv stmt ", err)
		d.Close()
		return nil, err
	}
	d.upsertKV = stmt

	stmt, err = db.Prepare("DELETE FROM kv WHERE key=?")
	if err != nil {
		glog.Error("Unable to prepare deletekv stmt ", err)
		d.Close()
		return nil, err
	}
	d.deleteKV = stmt

	glog.V(DEBUG).Info("Initialized DB node")
	return &d, nil
}

func (db *DB) Close() {
	glog.V(DEBUG).Info("Closing DB")
	if db.selectKV != nil {
		db.selectKV.Close()
	}
	if db.upsertKV != nil {
		db.upsertKV.Close()
	}
	if db.deleteKV != nil {
		db.deleteKV.Close()
	}
	if db.dbh != nil {
		db.dbh.Close()
	}
}

// LastAccount returns the persisted wallet address, or "" when the slot is empty.
func (db *DB) LastAccount() (string, error) {
	if db == nil {
		return "", nil
	}
	var val string
	err := db.selectKV.QueryRow(WalletAccountKey).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "db: could not read wallet account")
	}
	return val, nil
}

func (db *DB) SetLastAccount(account string) error {
	if db == nil {
		return nil
	}
	glog.V(DEBUG).Info("db: Setting walletAccount to ", account)
	if _, err := db.upsertKV.Exec(WalletAccountKey, account); err != nil {
		glog.Error("db: Got err in updating wallet account ", err)
		return errors.Wrap(err, "db: could not store wallet account")
	}
	return nil
}

func (db *DB) ClearLastAccount() error {
	if db == nil {
		return nil
	}
	glog.V(DEBUG).Info("db: Clearing walletAccount")
	if _, err := db.deleteKV.Exec(WalletAccountKey); err != nil {
		glog.Error("db: Got err in clearing wallet account ", err)
		return errors.Wrap(err, "db: could not clear wallet account")
	}
	return nil
}

// ChainID returns the chain the node was last started against, or nil.
func (db *DB) ChainID() (*big.Int, error) {
	var val string
	err := db.selectKV.QueryRow(chainIDKey).Scan(&val)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "db: could not read chainID")
	}
	chainID, ok := new(big.Int).SetString(val, 10)
	if !ok {
		return nil, errors.Errorf("db: invalid chainID %q", val)
	}
	return chainID, nil
}

func (db *DB) SetChainID(id *big.Int) error {
	glog.V(DEBUG).Info("db: Setting chainID to ", id)
	if _, err := db.upsertKV.Exec(chainIDKey, id.String()); err != nil {
		glog.Error("db: Got err in updating chainID ", err)
		return errors.Wrap(err, "db: could not store chainID")
	}
	return nil
}
