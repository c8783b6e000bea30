package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestMaskCardNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"4111111111111111", "4111********1111"},
		{"123456789", "1234*6789"},
		{"12345678", "********"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := MaskCardNumber(tt.input); got != tt.want {
			t.Errorf("MaskCardNumber(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{" error ", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"verbose", logrus.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
