package processor

import (
	"testing"

	"ifc-processor/internal/processor/models"
)

func TestMergeGeometry(t *testing.T) {
	level := int64(21)
	elements := []models.Element{
		{
			GlobalID:   "wallguid0000000000001",
			Type:       "IfcWall",
			LevelID:    &level,
			ElementKey: "IfcWall_Width:0.3",
		},
	}

	geometry := models.GeometryData{
		Elements: []models.GeometryElement{
			{ID: "wallguid0000000000001", IfcType: "IfcWall"},
			{ID: "pipeguid0000000000001", IfcType: "IfcFlowSegment"},
		},
	}

	MergeGeometry(&geometry, elements)

	wall := geometry.Elements[0]
	if wall.ElementKey != "IfcWall_Width:0.3" {
		t.Errorf("wall key = %q, want IfcWall_Width:0.3", wall.ElementKey)
	}
	if wall.LevelID == nil || *wall.LevelID != 21 {
		t.Errorf("wall level = %v, want 21", wall.LevelID)
	}

	// Элемент вне конвейера обработки получает дефолтный ключ по типу
	pipe := geometry.Elements[1]
	if pipe.ElementKey != "IfcFlowSegment_default" {
		t.Errorf("pipe key = %q, want IfcFlowSegment_default", pipe.ElementKey)
	}
	if pipe.LevelID != nil {
		t.Errorf("pipe level = %v, want nil", pipe.LevelID)
	}
}

func TestMergeGeometryUnknownType(t *testing.T) {
	geometry := models.GeometryData{
		Elements: []models.GeometryElement{{ID: "guid", IfcType: ""}},
	}

	MergeGeometry(&geometry, nil)

	if got := geometry.Elements[0].ElementKey; got != "Unknown_default" {
		t.Errorf("key = %q, want Unknown_default", got)
	}
}
