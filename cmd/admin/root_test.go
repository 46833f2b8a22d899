package main

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "admin", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"migrate", "create-user", "seed", "report"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	envFile := cmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, envFile)
	assert.Equal(t, ".env", envFile.DefValue)

	for _, name := range []string{"driver", "dsn", "log-level"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestReportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	reportCmd, _, err := cmd.Find([]string{"report"})
	require.NoError(t, err)

	as := reportCmd.Flags().Lookup("as")
	require.NotNil(t, as)
	assert.Equal(t, "audit_user", as.DefValue)

	format := reportCmd.Flags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "csv", format.DefValue)
}

func TestParseFilterFlags(t *testing.T) {
	values, err := parseFilterFlags([]string{"accountId=ACC-1", "keyword=a=b", " minAmount =10"})
	require.NoError(t, err)
	assert.Equal(t, "ACC-1", values.Get("accountId"))
	assert.Equal(t, "a=b", values.Get("keyword"))
	assert.Equal(t, "10", values.Get("minAmount"))

	_, err = parseFilterFlags([]string{"accountId"})
	assert.Error(t, err)
	_, err = parseFilterFlags([]string{"=x"})
	assert.Error(t, err)
}

// run executes the CLI against a SQLite file and returns stdout.
func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	base := []string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "--driver", "sqlite", "--dsn", dbPath, "--log-level", "warn"}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSeedAndReport(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "admin.db")

	out, err := run(t, dbPath, "seed", "--transactions", "7", "--seed", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "created user audit_user (auditor)")
	assert.Contains(t, out, "created user transact_user (transactor)")
	assert.Contains(t, out, "created 7 transactions for transact_user")

	// A second run leaves existing users alone.
	out, err = run(t, dbPath, "seed")
	require.NoError(t, err)
	assert.NotContains(t, out, "created user")

	out, err = run(t, dbPath, "report")
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 8)
	assert.Equal(t, "ID", records[0][0])
	for _, rec := range records[1:] {
		assert.Equal(t, "seed", rec[7])
	}

	out, err = run(t, dbPath, "report", "--filter", "keyword=no such words anywhere")
	require.NoError(t, err)
	records, err = csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestReport_TransactorRejected(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "admin.db")

	_, err := run(t, dbPath, "seed")
	require.NoError(t, err)

	_, err = run(t, dbPath, "report", "--as", "transact_user")
	assert.Error(t, err)

	_, err = run(t, dbPath, "report", "--as", "nobody")
	assert.ErrorContains(t, err, "not found")
}

func TestCreateUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "admin.db")

	out, err := run(t, dbPath, "create-user", "--username", "carol", "--password", "longenough", "--role", "auditor")
	require.NoError(t, err)
	assert.Contains(t, out, "(carol, auditor)")

	_, err = run(t, dbPath, "create-user", "--username", "carol", "--password", "longenough", "--role", "auditor")
	assert.Error(t, err)

	_, err = run(t, dbPath, "create-user", "--username", "dave", "--password", "longenough", "--role", "admin")
	assert.Error(t, err)
}
