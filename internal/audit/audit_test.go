package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testRecord() Record {
	return Record{
		Timestamp: testTime,
		Actor:     "Cleared GL <gl@cleared.dev>",
		Action:    ActionPost,
		Subject:   "2025-01-004",
		Details:   "Ocean freight, invoice 1042",
	}
}

func TestAppendAndRead(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, testRecord()))

	second := testRecord()
	second.Action = ActionAccountAdd
	second.Subject = "acct-1"
	require.NoError(t, Append(dir, second))

	records, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, testRecord(), records[0])
	assert.Equal(t, ActionAccountAdd, records[1].Action)

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header), "header written once")
	assert.Contains(t, string(data), `"Ocean freight, invoice 1042"`)
}

func TestAppend_Nothing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir))
	_, err := os.Stat(filepath.Join(dir, "logs"))
	assert.True(t, os.IsNotExist(err))
}

func TestRead_Missing(t *testing.T) {
	records, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestUnmarshalRecord_Errors(t *testing.T) {
	_, err := UnmarshalRecord([]string{"a", "b"})
	assert.ErrorContains(t, err, "expected 5 fields")

	_, err = UnmarshalRecord([]string{"yesterday", "a", "post", "", ""})
	assert.ErrorContains(t, err, "parsing timestamp")
}

func TestRead_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(Path(dir), []byte(Header+"\nbad-time,a,post,,\n"), 0o644))

	_, err := Read(dir)
	assert.ErrorContains(t, err, "row 2")
}
