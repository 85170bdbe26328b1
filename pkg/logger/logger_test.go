package logger

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{
			name: "info level",
			opts: Options{Level: "info"},
		},
		{
			name: "debug level",
			opts: Options{Level: "debug"},
		},
		{
			name: "empty level defaults to info",
			opts: Options{},
		},
		{
			name:    "invalid level",
			opts:    Options{Level: "verbose"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestNewWithFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "truthkit.log")

	logger, err := New(Options{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if logger == nil {
		t.Fatal("New() returned nil logger")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).With().Timestamp().Logger()
	return &zerologLogger{
		logger: &zlog,
		fields: make(map[string]interface{}),
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	levels := []struct {
		name string
		log  func(string)
	}{
		{"Debug", logger.Debug},
		{"Info", logger.Info},
		{"Warn", logger.Warn},
		{"Error", logger.Error},
	}

	for _, lv := range levels {
		t.Run(lv.name, func(t *testing.T) {
			buf.Reset()
			msg := strings.ToLower(lv.name) + " message"
			lv.log(msg)
			if !strings.Contains(buf.String(), msg) {
				t.Errorf("%s message not found in output", lv.name)
			}
		})
	}
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.WithField("handle", "someuser").Info("lookup")

	output := buf.String()
	if !strings.Contains(output, "lookup") {
		t.Error("Message not found in output")
	}
	if !strings.Contains(output, `"handle":"someuser"`) {
		t.Error("Field not found in output")
	}
}

func TestWithFieldsChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.
		WithField("endpoint", "/v1/statuses").
		WithFields(map[string]interface{}{
			"attempt": 2,
			"status":  429,
		}).
		Warn("retrying request")

	output := buf.String()
	for _, want := range []string{
		"retrying request",
		`"endpoint":"/v1/statuses"`,
		`"attempt":2`,
		`"status":429`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %s", want)
		}
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	_ = logger.WithField("child", "only")
	logger.Info("parent message")

	if strings.Contains(buf.String(), `"child"`) {
		t.Error("child field leaked into parent logger")
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	if logger.WithError(nil) != Logger(logger) {
		t.Error("WithError(nil) should return the same logger")
	}

	logger.WithError(fmt.Errorf("connection reset")).Error("request failed")

	output := buf.String()
	if !strings.Contains(output, "request failed") {
		t.Error("Message not found in output")
	}
	if !strings.Contains(output, "connection reset") {
		t.Error("Error message not found in output")
	}
}

func TestInfoWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.InfoWithFields("crawl complete", map[string]interface{}{
		"collection": "statuses",
		"yielded":    57,
	})

	output := buf.String()
	if !strings.Contains(output, "crawl complete") {
		t.Error("Message not found in output")
	}
	if !strings.Contains(output, `"collection":"statuses"`) {
		t.Error("Collection field not found in output")
	}
	if !strings.Contains(output, `"yielded":57`) {
		t.Error("Yielded field not found in output")
	}
}

func TestGlobalLogger(t *testing.T) {
	if err := Initialize(Options{Level: "debug"}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger() == nil {
		t.Error("GetLogger() returned nil")
	}
}

func TestTestLoggerCapturesMessages(t *testing.T) {
	tl := NewTestLogger()

	tl.Info("first")
	tl.Warn("second")
	tl.ErrorWithFields("third", map[string]interface{}{"code": 500})

	msgs := tl.Messages()
	if len(msgs) != 3 {
		t.Fatalf("Messages() = %d entries, want 3", len(msgs))
	}
	if !tl.HasMessage("second") {
		t.Error("HasMessage(second) = false")
	}
	if tl.HasMessage("missing") {
		t.Error("HasMessage(missing) = true")
	}

	errs := tl.MessagesByLevel("ERROR")
	if len(errs) != 1 {
		t.Fatalf("MessagesByLevel(ERROR) = %d entries, want 1", len(errs))
	}
	if errs[0].Fields["code"] != 500 {
		t.Errorf("error fields = %v, want code 500", errs[0].Fields)
	}
}

func TestTestLoggerChildSharesMessages(t *testing.T) {
	tl := NewTestLogger()

	child := tl.WithField("worker", 3)
	child.Info("from child")

	if !tl.HasMessage("from child") {
		t.Error("child message not visible on parent")
	}

	msgs := tl.Messages()
	if msgs[0].Fields["worker"] != 3 {
		t.Errorf("child fields = %v, want worker 3", msgs[0].Fields)
	}
}
