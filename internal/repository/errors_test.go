package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestIsDuplicateEntry(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	if !IsDuplicateEntry(dup) {
		t.Error("1062 not recognized as duplicate")
	}
	if !IsDuplicateEntry(fmt.Errorf("insert: %w", dup)) {
		t.Error("wrapped 1062 not recognized")
	}
	if IsDuplicateEntry(&mysql.MySQLError{Number: 1213}) {
		t.Error("1213 misclassified as duplicate")
	}
	if IsDuplicateEntry(errors.New("plain error")) {
		t.Error("non-mysql error misclassified")
	}
	if IsDuplicateEntry(nil) {
		t.Error("nil misclassified")
	}
}

func TestIsLockContention(t *testing.T) {
	for _, num := range []uint16{1205, 1213} {
		err := &mysql.MySQLError{Number: num}
		if !IsLockContention(err) {
			t.Errorf("%d not recognized as lock contention", num)
		}
		if !IsLockContention(fmt.Errorf("update: %w", err)) {
			t.Errorf("wrapped %d not recognized", num)
		}
	}
	if IsLockContention(&mysql.MySQLError{Number: 1062}) {
		t.Error("1062 misclassified as lock contention")
	}
	if IsLockContention(nil) {
		t.Error("nil misclassified")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Main Depot", "main_depot"},
		{"  main   depot  ", "main_depot"},
		{"WAREHOUSE", "warehouse"},
		{"a\tb\nc", "a_b_c"},
		{"already_normal", "already_normal"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
