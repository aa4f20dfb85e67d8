package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseLevel(tc.in); got != tc.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNopBeforeInit(t *testing.T) {
	// Must not panic before Init.
	Debug("cache wrap", zap.Int("epoch", 2))
	Info("startup")
}

func TestFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "ember.log")

	cfg := FileConfig{Path: logFile, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1}
	if err := InitWithFileConfig("debug", cfg, false); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = InitWithFileConfig("info", FileConfig{}, false)
	})

	Debug("surface cache wrapped", zap.Uint64("epoch", 3))
	Sugar.Infof("seam pass covered %d texels", 42)
	Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, want := range []string{"surface cache wrapped", `"epoch":3`, "covered 42 texels"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "ember.log")
	if err := InitWithFileConfig("warn", FileConfig{Path: logFile, MaxSizeMB: 1}, false); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = InitWithFileConfig("info", FileConfig{}, false)
	})

	Info("hidden")
	Warn("shown")
	Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "hidden") {
		t.Error("info entry written at warn level")
	}
	if !strings.Contains(string(data), "shown") {
		t.Error("warn entry missing")
	}
}
