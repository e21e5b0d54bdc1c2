package cache

import (
	"testing"
	"time"
)

func TestNewPageEntry(t *testing.T) {
	before := time.Now()
	entry := NewPageEntry([]byte(`{"batchcomplete":""}`))

	if string(entry.Body) != `{"batchcomplete":""}` {
		t.Errorf("Body = %q", entry.Body)
	}
	if entry.FetchedAt.Before(before) {
		t.Errorf("FetchedAt %v is before creation time %v", entry.FetchedAt, before)
	}
}

func TestPageEntry_Age(t *testing.T) {
	entry := &PageEntry{FetchedAt: time.Now().Add(-2 * time.Minute)}

	age := entry.Age()
	if age < 2*time.Minute || age > 3*time.Minute {
		t.Errorf("Age() = %v, want about 2m", age)
	}
}
