package shared

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsSQLiteConflictError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("no such table: profiles"), false},
		{"busy text", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"wrapped locked text", fmt.Errorf("upsert progress: %w", errors.New("database is locked")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSQLiteConflictError(tt.err); got != tt.want {
				t.Errorf("IsSQLiteConflictError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestSQLiteCodeNonDriverError(t *testing.T) {
	if code := SQLiteCode(errors.New("boom")); code != 0 {
		t.Errorf("Expected 0, got %d", code)
	}
}
