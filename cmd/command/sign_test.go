package command

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"health-record-vault/pkg/integrity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDraft() recordDraft {
	return recordDraft{
		PatientUUID: "3f1e8a4c-2b7d-4c1a-9e55-0a6b2d9c7f10",
		Title:       " Annual checkup ",
		Date:        "2024-03-02T10:30:00+02:00",
		RecordType:  "checkup",
		Facility:    "Dr. Grey",
		Notes:       "All good",
	}
}

func TestRecordDraftFields(t *testing.T) {
	fields, err := sampleDraft().fields()
	require.NoError(t, err)

	assert.Equal(t, "Annual checkup", fields.Title)
	assert.Equal(t, time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC), fields.Date)
	assert.Equal(t, "Dr. Grey", fields.Facility)
	assert.Equal(t, "All good", fields.Content.Notes)
}

func TestRecordDraftFields_Rejects(t *testing.T) {
	cases := map[string]func(*recordDraft){
		"bad uuid":       func(d *recordDraft) { d.PatientUUID = "nope" },
		"bad date":       func(d *recordDraft) { d.Date = "yesterday" },
		"empty facility": func(d *recordDraft) { d.Facility = "  " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := sampleDraft()
			mutate(&d)
			_, err := d.fields()
			assert.Error(t, err)
		})
	}
}

func TestSignRecordCommand(t *testing.T) {
	publicKey, privateKey, err := integrity.GenerateKeyPair()
	require.NoError(t, err)

	dir := t.TempDir()
	draftPath := filepath.Join(dir, "draft.json")
	keyPath := filepath.Join(dir, "issuer.pem")

	raw, err := json.Marshal(sampleDraft())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(draftPath, raw, 0o600))
	require.NoError(t, os.WriteFile(keyPath, []byte(privateKey), 0o600))

	var out bytes.Buffer
	cmd := newSignRecordCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--draft", draftPath, "--key", keyPath})
	require.NoError(t, cmd.Execute())

	printed := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		key, value, ok := strings.Cut(line, ":")
		require.True(t, ok, line)
		printed[key] = strings.TrimSpace(value)
	}

	fields, err := sampleDraft().fields()
	require.NoError(t, err)
	wantHash, err := integrity.CanonicalHash(fields)
	require.NoError(t, err)

	assert.Equal(t, wantHash, printed["hash"])
	assert.True(t, integrity.Verify(fields, printed["signature"], publicKey))
}

func TestSignRecordCommand_MissingFlags(t *testing.T) {
	cmd := newSignRecordCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())
}
