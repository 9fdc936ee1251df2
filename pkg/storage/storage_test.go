package storage

import (
	"strings"
	"testing"

	"github.com/feichai0017/hasty/pkg/logger"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{UploadKey("t1"), "upload:t1.xlsx"},
		{ResultKey("t1"), "result:t1.xlsx"},
		{ResultJSONKey("t1"), "result:t1.json"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestNewStorageUnsupported(t *testing.T) {
	_, err := NewStorage("ftp", logger.NewTestLogger())
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported storage error, got %v", err)
	}
}
