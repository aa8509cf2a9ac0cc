package expiry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 { return &v }

func entryWithPointer(pointer string) *PickEntry {
	return &PickEntry{
		Count:    7,
		Current:  int64Ptr(1),
		Par:      int64Ptr(2),
		Need:     int64Ptr(3),
		Forecast: int64Ptr(4),
		Total:    int64Ptr(5),
		CoilItem: &CoilItem{Sku: &Sku{CountNeededPointer: pointer}},
	}
}

func TestParseCountNeededPointer(t *testing.T) {
	tests := []struct {
		in   string
		want CountNeededPointer
	}{
		{"current", PointerCurrent},
		{"PAR", PointerPar},
		{" Need ", PointerNeed},
		{"forecast", PointerForecast},
		{"total", PointerTotal},
		{"", PointerTotal},
		{"bogus", PointerTotal},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCountNeededPointer(tt.in))
		})
	}
}

func TestResolvePickEntryCount(t *testing.T) {
	t.Run("override wins over every field", func(t *testing.T) {
		e := entryWithPointer("par")
		e.Override = int64Ptr(42)
		assert.Equal(t, int64(42), ResolvePickEntryCount(e))
	})

	t.Run("pointer selects the field", func(t *testing.T) {
		assert.Equal(t, int64(1), ResolvePickEntryCount(entryWithPointer("current")))
		assert.Equal(t, int64(2), ResolvePickEntryCount(entryWithPointer("Par")))
		assert.Equal(t, int64(3), ResolvePickEntryCount(entryWithPointer("need")))
		assert.Equal(t, int64(4), ResolvePickEntryCount(entryWithPointer("forecast")))
		assert.Equal(t, int64(5), ResolvePickEntryCount(entryWithPointer("total")))
	})

	t.Run("unknown pointer defaults to total", func(t *testing.T) {
		assert.Equal(t, int64(5), ResolvePickEntryCount(entryWithPointer("whatever")))
	})

	t.Run("null field falls back to count", func(t *testing.T) {
		e := entryWithPointer("need")
		e.Need = nil
		assert.Equal(t, int64(7), ResolvePickEntryCount(e))
	})

	t.Run("missing sku uses total", func(t *testing.T) {
		e := &PickEntry{Count: 9, Total: int64Ptr(11)}
		assert.Equal(t, int64(11), ResolvePickEntryCount(e))
	})

	t.Run("negative values are returned unclamped", func(t *testing.T) {
		e := &PickEntry{Override: int64Ptr(-3)}
		assert.Equal(t, int64(-3), ResolvePickEntryCount(e))
		assert.Equal(t, int64(0), PlannedQuantity(e))
	})

	t.Run("nil entry", func(t *testing.T) {
		assert.Equal(t, int64(0), ResolvePickEntryCount(nil))
	})
}
