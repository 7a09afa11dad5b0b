package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerGlyphs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		log  func(l *Logger)
		want string
	}{
		{
			name: "info uses check mark",
			log:  func(l *Logger) { l.Info("fetched %d items", 3) },
			want: "✓ fetched 3 items\n",
		},
		{
			name: "warn uses warning sign",
			log:  func(l *Logger) { l.Warn("no expiry on %s", "db-password") },
			want: "⚠ no expiry on db-password\n",
		},
		{
			name: "error uses cross",
			log:  func(l *Logger) { l.Error("send failed") },
			want: "✗ send failed\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			l := New(false, true)
			l.SetOutput(&buf)

			tt.log(l)

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLoggerDebugGate(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(false, true)
	l.SetOutput(&buf)

	l.Debug("should not appear")
	assert.Empty(t, buf.String())

	dl := New(true, true)
	dl.SetOutput(&buf)
	dl.Debug("should appear")
	assert.Equal(t, "[DEBUG] should appear\n", buf.String())
}

func TestLoggerColorCodes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(false, false)
	l.SetOutput(&buf)

	l.Info("colored")
	assert.Contains(t, buf.String(), "\033[32m")
	assert.Contains(t, buf.String(), "\033[0m")
}

func TestSecretRedaction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "secret is redacted", input: "my-secret-password"},
		{name: "empty secret is still redacted", input: ""},
		{name: "complex secret is redacted", input: "password123!@#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, "[REDACTED]", Secret(tt.input).String())
			assert.Equal(t, "[REDACTED]", Secret(tt.input).GoString())
		})
	}
}

func TestRedact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		secrets  []string
		expected string
	}{
		{
			name:     "single secret redacted",
			input:    "SMTP password is hunter22",
			secrets:  []string{"hunter22"},
			expected: "SMTP password is [REDACTED]",
		},
		{
			name:     "multiple secrets redacted",
			input:    "user reporter with password hunter22 and token abc123",
			secrets:  []string{"reporter", "hunter22", "abc123"},
			expected: "user [REDACTED] with password [REDACTED] and token [REDACTED]",
		},
		{
			name:     "no secrets to redact",
			input:    "nothing sensitive here",
			secrets:  []string{},
			expected: "nothing sensitive here",
		},
		{
			name:     "short secret ignored",
			input:    "pin is ab",
			secrets:  []string{"ab"},
			expected: "pin is ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, Redact(tt.input, tt.secrets))
		})
	}
}
