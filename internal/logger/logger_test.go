package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  logrus.Level
	}{
		{"empty defaults to info", "", logrus.InfoLevel},
		{"debug", "debug", logrus.DebugLevel},
		{"upper case", "WARN", logrus.WarnLevel},
		{"invalid defaults to info", "chatty", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitializeAndConfigure(tt.level)
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
}

func TestInfoWithFieldsWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	InitializeAndConfigure("info")
	SetOutput(&buf)

	InfoWithFields("job settled", map[string]interface{}{"job_id": 3, "status": "paid"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "job settled", entry["msg"])
	assert.Equal(t, "paid", entry["status"])
	assert.EqualValues(t, 3, entry["job_id"])
}
