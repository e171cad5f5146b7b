package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// runApp runs the CLI with output discarded. None of these paths reach the database.
func runApp(t *testing.T, args ...string) error {
	t.Helper()

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	app := newApp()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	return app.Run(append([]string{"calendar-api"}, args...))
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestErrorHandling_ImportMissingFile(t *testing.T) {
	err := runApp(t, "import", "--session", "S1", "--file", filepath.Join(t.TempDir(), "absent.csv"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open csv")
}

func TestErrorHandling_ImportRequiresFlags(t *testing.T) {
	err := runApp(t, "import", "--file", "events.csv")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "session")
}

func TestErrorHandling_ImportRejectsInvalidRows(t *testing.T) {
	path := writeCSV(t, csvHeader+
		"ok,,,,2025-01-10T09:00:00Z,2025-01-10T10:00:00Z,\n"+
		",,,,2025-01-10T09:00:00Z,2025-01-10T10:00:00Z,\n")

	err := runApp(t, "import", "--session", "S1", "--file", path)

	require.Error(t, err)
	assert.EqualError(t, err, "line 3: Missing required field: title")
}

func TestErrorHandling_ImportMalformedCSV(t *testing.T) {
	path := writeCSV(t, csvHeader+`"unterminated,,,,2025-01-10T09:00:00Z,2025-01-10T10:00:00Z,`+"\n")

	err := runApp(t, "import", "--session", "S1", "--file", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse csv")
}

func TestErrorHandling_ImportDryRunNeedsNoDatabase(t *testing.T) {
	t.Setenv("CALENDAR_DB_HOST", "host.invalid")
	path := writeCSV(t, csvHeader+"ok,,,,2025-01-10T09:00:00Z,2025-01-10T10:00:00Z,\n")

	stdout := os.Stdout
	devnull, err := os.Open(os.DevNull)
	require.NoError(t, err)
	os.Stdout = devnull
	t.Cleanup(func() {
		os.Stdout = stdout
		devnull.Close()
	})

	err = runApp(t, "import", "--session", "S1", "--file", path, "--dry-run")

	assert.NoError(t, err)
}

func TestErrorHandling_ExportInvalidRange(t *testing.T) {
	err := runApp(t, "export", "--session", "S1", "--range-start", "someday")

	assert.EqualError(t, err, "Invalid date for field range-start")
}

func TestErrorHandling_InvalidConfiguration(t *testing.T) {
	t.Setenv("CALENDAR_LOG_LEVEL", "loud")

	for _, cmd := range []string{"serve", "migrate"} {
		t.Run(cmd, func(t *testing.T) {
			err := runApp(t, cmd)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "load config")
		})
	}
}

func TestErrorHandling_DefaultActionIsServe(t *testing.T) {
	t.Setenv("CALENDAR_PORT", "not-a-port")

	err := runApp(t)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestErrorHandling_CloseFailureIsLogged(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose().WillReturnError(errors.New("pool stuck"))

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	closeDB(context.Background(), gormDB, slog.New(slog.NewTextHandler(&buf, nil)))

	assert.Contains(t, buf.String(), "can't close database")
	assert.Contains(t, buf.String(), "pool stuck")
	assert.NoError(t, mock.ExpectationsWereMet())
}
