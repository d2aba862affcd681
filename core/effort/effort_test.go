package effort

import (
	"testing"

	"github.com/lucasmnd/hkroster/core/model"
)

func TestTable_Estimate(t *testing.T) {
	tbl := NewTable(map[string]int{model.CleanDeparture: 45, model.CleanWeekly: 90})
	if got := tbl.Estimate(model.CleanDeparture); got != 45 {
		t.Fatalf("departure = %d, want 45", got)
	}
	if got := tbl.Estimate("DEEP_CLEAN"); got != DefaultMinutes {
		t.Fatalf("unknown type = %d, want default %d", got, DefaultMinutes)
	}
}

func TestTable_Set(t *testing.T) {
	tbl := NewTable(nil)
	tbl.Set(model.CleanRubbish, 10)
	if got := tbl.Estimate(model.CleanRubbish); got != 10 {
		t.Fatalf("after set = %d, want 10", got)
	}
	tbl.Set(model.CleanRubbish, 15)
	if got := tbl.Estimate(model.CleanRubbish); got != 15 {
		t.Fatalf("after update = %d, want 15", got)
	}
}
