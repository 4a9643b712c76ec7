package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-repairs/internal/config"
	"github.com/diewo77/go-repairs/internal/db"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// testOpener gives every command its own connection to one shared in-memory
// database. The anchor connection keeps that database alive between commands.
func testOpener(t *testing.T) envOpener {
	t.Helper()
	dsn := "file:" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "?mode=memory&cache=shared"
	anchor, err := db.OpenSQLite(dsn, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(anchor))
	t.Cleanup(func() {
		if sqlDB, err := anchor.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.StoreTimeout = time.Second
	cfg.App.TrialDays = 14
	return func(context.Context) (*appEnv, error) {
		conn, err := db.OpenSQLite(dsn, nil)
		if err != nil {
			return nil, err
		}
		return newAppEnv(cfg, zap.NewNop(), conn), nil
	}
}

func run(t *testing.T, open envOpener, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seededCodes(t *testing.T, output string) []string {
	t.Helper()
	var codes []string
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		fields := strings.Fields(line)
		require.NotEmpty(t, fields)
		codes = append(codes, fields[0])
	}
	return codes
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	open := testOpener(t)

	out, err := run(t, open, "seed-demo")
	require.NoError(t, err)
	assert.Len(t, seededCodes(t, out), len(demoRepairs))

	out, err = run(t, open, "seed-demo")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestRepairsShow(t *testing.T) {
	open := testOpener(t)
	out, err := run(t, open, "seed-demo")
	require.NoError(t, err)
	code := seededCodes(t, out)[0]

	out, err = run(t, open, "repairs", "show", strings.ToLower(code))
	require.NoError(t, err)
	var rec repairRecord
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, code, rec.Code)
	assert.Equal(t, "Demo Repair Shop", rec.Establishment)
	require.NotNil(t, rec.Price)
	assert.InDelta(t, 89.9, *rec.Price, 0.001)

	out, err = run(t, open, "repairs", "show", code, "-o", "yaml")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, code, doc["code"])
	assert.Equal(t, "nouveau", doc["status"])

	_, err = run(t, open, "repairs", "show", code, "-o", "xml")
	assert.Error(t, err)

	_, err = run(t, open, "repairs", "show", "ZZZZ2222")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTrackPrintsPublicView(t *testing.T) {
	open := testOpener(t)
	out, err := run(t, open, "seed-demo")
	require.NoError(t, err)
	code := seededCodes(t, out)[0]

	out, err = run(t, open, "track", code)
	require.NoError(t, err)
	assert.Contains(t, out, `"code": "`+code+`"`)
	assert.NotContains(t, out, "price")

	_, err = run(t, open, "track", "not-a-code")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestEstablishmentsListAndExtend(t *testing.T) {
	open := testOpener(t)
	_, err := run(t, open, "seed-demo")
	require.NoError(t, err)

	out, err := run(t, open, "establishments", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Demo Repair Shop")
	assert.Contains(t, out, "trial")

	out, err = run(t, open, "establishments", "extend", "--id", "1", "--days", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "active until")

	out, err = run(t, open, "shops", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "active")

	_, err = run(t, open, "establishments", "extend", "--id", "99")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = run(t, open, "establishments", "extend")
	assert.Error(t, err)
}

func TestWriteEstablishments(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ended := now.Add(-time.Hour)
	var buf bytes.Buffer
	require.NoError(t, writeEstablishments(&buf, []models.Establishment{
		{ID: 1, Name: "Open", SubscriptionStatus: models.SubscriptionActive},
		{ID: 2, Name: "Late", SubscriptionStatus: models.SubscriptionTrial, TrialEndsAt: &ended},
	}, now))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[1]), "ok"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[2]), "blocked"))
	assert.Contains(t, lines[2], "2026-03-10 08:00")
}
