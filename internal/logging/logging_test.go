package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/MrJamesThe3rd/brokerledger/internal/logging"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		enabled zapcore.Level
		wantErr string
	}{
		{name: "JSONInfo", level: "info", format: "json", enabled: zapcore.InfoLevel},
		{name: "DefaultFormat", level: "warn", format: "", enabled: zapcore.WarnLevel},
		{name: "ConsoleDebug", level: "debug", format: "console", enabled: zapcore.DebugLevel},
		{name: "BadLevel", level: "loud", format: "json", wantErr: "parsing log level"},
		{name: "BadFormat", level: "info", format: "xml", wantErr: `unknown log format "xml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := logging.New(tt.level, tt.format)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.enabled-1))
		})
	}
}
