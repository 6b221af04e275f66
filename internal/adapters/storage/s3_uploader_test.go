package storage

import (
	"testing"

	"github.com/google/uuid"
)

func TestObjectKeyIsDeterministic(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	key := ObjectKey(id, "report.pdf")
	want := "6ba7b810-9dad-11d1-80b4-00c04fd430c8_report.pdf"
	if key != want {
		t.Errorf("expected %q, got %q", want, key)
	}

	if ObjectKey(id, "report.pdf") != key {
		t.Error("key derivation must be deterministic")
	}
}

func TestObjectKeySeparatesTasks(t *testing.T) {
	a := ObjectKey(uuid.New(), "notes.txt")
	b := ObjectKey(uuid.New(), "notes.txt")
	if a == b {
		t.Error("same filename on different tasks must not collide")
	}
}
