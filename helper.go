package debitxgo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
)

// LocalHelper provisions a local database for the seeder and integration
// tests: schema init, demo accounts, teardown.
type LocalHelper struct {
	Conn *pgx.Conn
	Node *snowflake.Node
}

type SeedAccount struct {
	ID      string
	Owner   string
	Balance int64
}

func NewLocalHelper(cfg *Config) (*LocalHelper, error) {
	conn, err := pgx.Connect(context.Background(), cfg.Database.ConnStr)
	if err != nil {
		return nil, err
	}
	node, err := snowflake.NewNode(111)
	if err != nil {
		return nil, err
	}
	return &LocalHelper{
		Conn: conn,
		Node: node,
	}, nil
}

func (lh *LocalHelper) InitDB() (func(), error) {
	initSQLpath := filepath.Join("testdata", "init_db.sql")
	bits, err := os.ReadFile(initSQLpath)
	if err != nil {
		return nil, err
	}
	if _, err = lh.Conn.Exec(context.Background(), string(bits)); err != nil {
		return nil, err
	}
	return lh.teardownDB(), err
}

func (lh *LocalHelper) SeedAccounts(owners map[string]int64) ([]SeedAccount, error) {
	seedPath := filepath.Join("testdata", "seed_accounts.tmpl")
	bits, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, err
	}
	funcMap := template.FuncMap{
		"lastIdx": func(s []SeedAccount) int { return len(s) - 1 },
	}
	tmpl, err := template.New("seed_accounts").Funcs(funcMap).Parse(string(bits))
	if err != nil {
		return nil, err
	}

	accts := make([]SeedAccount, 0, len(owners))
	for owner, balance := range owners {
		accts = append(accts, SeedAccount{
			ID:      lh.Node.Generate().String(),
			Owner:   owner,
			Balance: balance,
		})
	}
	buf := new(bytes.Buffer)
	if err = tmpl.Execute(buf, accts); err != nil {
		return nil, err
	}

	if _, err = lh.Conn.Exec(context.Background(), buf.String()); err != nil {
		return nil, err
	}

	return accts, err
}

func (lh *LocalHelper) teardownDB() func() {
	return func() {
		defer lh.Conn.Close(context.Background())

		tearSQLpath := filepath.Join("testdata", "teardown_db.sql")
		bits, err := os.ReadFile(tearSQLpath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "DB cleanup read teardown sql: %s", err.Error())
			return
		}
		if _, err = lh.Conn.Exec(context.Background(), string(bits)); err != nil {
			fmt.Fprintf(os.Stderr, "DB cleanup exec teardown sql: %s", err.Error())
			return
		}
	}
}
