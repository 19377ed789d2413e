package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want logrus.Level
	}{
		{"", logrus.InfoLevel},
		{"debug", logrus.DebugLevel},
		{"  WARN ", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"verbose", logrus.InfoLevel}, // unknown falls back
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.raw); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestEntriesCarryServiceTag(t *testing.T) {
	entry := WithFields(logrus.Fields{"input": "clip.gif"})

	if entry.Data["service"] != serviceName {
		t.Errorf("service field = %v, want %q", entry.Data["service"], serviceName)
	}
	if entry.Data["input"] != "clip.gif" {
		t.Errorf("custom field lost: %v", entry.Data)
	}
}
