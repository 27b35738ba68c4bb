package processor

import (
	"testing"

	"ifc-processor/internal/processor/models"
)

// ============================================================
// Element key
// ============================================================

func TestElementKeyNoDimensions(t *testing.T) {
	for _, elementType := range []string{"IfcWall", "IfcDoor", "IfcSpace"} {
		want := elementType + "_default"
		if got := ElementKey(elementType, nil); got != want {
			t.Errorf("ElementKey(%s, nil) = %q, want %q", elementType, got, want)
		}
		if got := ElementKey(elementType, map[string]float64{}); got != want {
			t.Errorf("ElementKey(%s, {}) = %q, want %q", elementType, got, want)
		}
	}
}

func TestElementKeySortedDimensions(t *testing.T) {
	dims := map[string]float64{"Width": 2.345, "Length": 1.0}
	want := "IfcWall_Length:1.0-Width:2.345"
	if got := ElementKey("IfcWall", dims); got != want {
		t.Errorf("ElementKey() = %q, want %q", got, want)
	}
}

func TestElementKeyFiltersNonPositive(t *testing.T) {
	dims := map[string]float64{"Width": 0, "Height": -1}
	if got := ElementKey("IfcWall", dims); got != "IfcWall_default" {
		t.Errorf("ElementKey() = %q, want IfcWall_default", got)
	}
}

func TestFormatDimension(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1, "1.0"},
		{2.345, "2.345"},
		{0.3, "0.3"},
		{12.5, "12.5"},
	}
	for _, c := range cases {
		if got := formatDimension(c.in); got != c.want {
			t.Errorf("formatDimension(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

// ============================================================
// Spatial classifier
// ============================================================

func TestClosestLevel(t *testing.T) {
	p := New(nil)
	p.levels = []models.BuildingLevel{
		{ID: 1, Elevation: 0.0},
		{ID: 2, Elevation: 3.0},
		{ID: 3, Elevation: 6.0},
	}

	// 3.4 ближе к отметке 3.0, чем к 6.0
	if got := p.closestLevel(3.4); got == nil || *got != 2 {
		t.Errorf("closestLevel(3.4) = %v, want 2", got)
	}
	if got := p.closestLevel(-1.0); got == nil || *got != 1 {
		t.Errorf("closestLevel(-1.0) = %v, want 1", got)
	}
	if got := p.closestLevel(100.0); got == nil || *got != 3 {
		t.Errorf("closestLevel(100.0) = %v, want 3", got)
	}

	// Равноудаленность: побеждает первый в порядке обхода
	if got := p.closestLevel(1.5); got == nil || *got != 1 {
		t.Errorf("closestLevel(1.5) = %v, want 1 (stable min)", got)
	}
}

func TestClosestLevelEmptyCache(t *testing.T) {
	p := New(nil)
	if got := p.closestLevel(3.0); got != nil {
		t.Errorf("closestLevel() without cache = %v, want nil", got)
	}
}

// ============================================================
// Quantity aggregator
// ============================================================

func TestAggregator(t *testing.T) {
	p := New(nil)

	level1, level2 := int64(1), int64(2)
	p.accumulate("IfcWall_default", &level1)
	p.accumulate("IfcWall_default", &level1)
	p.accumulate("IfcWall_default", &level2)

	table := p.QuantityTable()
	if len(table.TableData) != 1 {
		t.Fatalf("rows = %d, want 1", len(table.TableData))
	}

	row := table.TableData[0]
	if row.TotalQuantity != 3 {
		t.Errorf("total = %d, want 3", row.TotalQuantity)
	}
	if row.LevelQuantities[1] != 2 || row.LevelQuantities[2] != 1 {
		t.Errorf("level quantities = %v, want map[1:2 2:1]", row.LevelQuantities)
	}
	if row.ElementType != "IfcWall" {
		t.Errorf("element type = %q, want IfcWall", row.ElementType)
	}
	if row.UnitOfMeasure != "m²" {
		t.Errorf("unit = %q, want m²", row.UnitOfMeasure)
	}
}

func TestAggregatorNilLevel(t *testing.T) {
	p := New(nil)
	p.accumulate("IfcBeam_default", nil)
	p.accumulate("IfcBeam_default", nil)

	row := p.QuantityTable().TableData[0]
	if row.TotalQuantity != 2 {
		t.Errorf("total = %d, want 2", row.TotalQuantity)
	}
	if len(row.LevelQuantities) != 0 {
		t.Errorf("level quantities = %v, want empty", row.LevelQuantities)
	}
}

func TestAggregatorEmpty(t *testing.T) {
	p := New(nil)
	p.levels = []models.BuildingLevel{{ID: 7, Name: "Level 7"}}

	table := p.QuantityTable()
	if len(table.TableData) != 0 {
		t.Errorf("rows = %d, want 0", len(table.TableData))
	}
	// Этажи возвращаются и при пустой таблице
	if len(table.Levels) != 1 {
		t.Errorf("levels = %d, want 1", len(table.Levels))
	}
}

func TestAggregatorRowOrder(t *testing.T) {
	p := New(nil)
	p.accumulate("IfcWall_default", nil)
	p.accumulate("IfcDoor_default", nil)
	p.accumulate("IfcWall_Width:0.3", nil)

	rows := p.QuantityTable().TableData
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	// Первичный ключ element_type, вторичный element_key
	wantKeys := []string{"IfcDoor_default", "IfcWall_Width:0.3", "IfcWall_default"}
	for i, want := range wantKeys {
		if rows[i].ElementKey != want {
			t.Errorf("rows[%d].ElementKey = %q, want %q", i, rows[i].ElementKey, want)
		}
	}
}

func TestUnknownTypeUnit(t *testing.T) {
	p := New(nil)
	p.accumulate("IfcChimney_default", nil)

	row := p.QuantityTable().TableData[0]
	if row.UnitOfMeasure != "units" {
		t.Errorf("unit = %q, want units (default)", row.UnitOfMeasure)
	}
}
