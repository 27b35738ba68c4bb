package processor

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// Два стенных элемента на этаже A, дверь на этаже B. Без размерных
// свойств — все группируется в дефолтные ключи.
const pipelineFixture = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION((''),'2;1');
FILE_NAME('building.ifc','2024-05-01T10:00:00',(''),(''),'','','');
FILE_SCHEMA(('IFC4'));
ENDSEC;
DATA;
#1=IFCPROJECT('projguid0000000000001',$,'Pipeline Project',$,$,$,$,$,$);
#10=IFCCARTESIANPOINT((0.,0.,0.));
#11=IFCAXIS2PLACEMENT3D(#10,$,$);
#12=IFCLOCALPLACEMENT($,#11);
#13=IFCCARTESIANPOINT((0.,0.,3.));
#14=IFCAXIS2PLACEMENT3D(#13,$,$);
#15=IFCLOCALPLACEMENT($,#14);
#20=IFCBUILDINGSTOREY('storeyAguid0000000001',$,'Level A',$,$,#12,$,$,.ELEMENT.,0.);
#21=IFCBUILDINGSTOREY('storeyBguid0000000002',$,'Level B',$,$,#15,$,$,.ELEMENT.,3.);
#30=IFCCARTESIANPOINT((0.,0.));
#31=IFCAXIS2PLACEMENT2D(#30,$);
#32=IFCRECTANGLEPROFILEDEF(.AREA.,$,#31,4.,0.3);
#33=IFCDIRECTION((0.,0.,1.));
#34=IFCCARTESIANPOINT((0.,0.,0.));
#35=IFCAXIS2PLACEMENT3D(#34,$,$);
#36=IFCEXTRUDEDAREASOLID(#32,#35,#33,3.);
#37=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#36));
#38=IFCPRODUCTDEFINITIONSHAPE($,$,(#37));
#40=IFCWALL('wallguid0000000000001',$,'Wall 1',$,$,#12,#38,$);
#41=IFCWALL('wallguid0000000000002',$,'Wall 2',$,$,#12,#38,$);
#50=IFCRECTANGLEPROFILEDEF(.AREA.,$,#31,0.9,0.1);
#51=IFCEXTRUDEDAREASOLID(#50,#35,#33,2.1);
#52=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#51));
#53=IFCPRODUCTDEFINITIONSHAPE($,$,(#52));
#54=IFCDOOR('doorguid0000000000001',$,'Door 1',$,$,#15,#53,$,2.1,0.9);
#70=IFCRELCONTAINEDINSPATIALSTRUCTURE('relguid0000000000001',$,$,$,(#40,#41),#20);
#71=IFCRELCONTAINEDINSPATIALSTRUCTURE('relguid0000000000002',$,$,$,(#54),#21);
ENDSEC;
END-ISO-10303-21;
`

func writePipelineFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "building.ifc")
	if err := os.WriteFile(path, []byte(pipelineFixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestProcessFile(t *testing.T) {
	result := ProcessFile(writePipelineFixture(t))
	if !result.Success {
		t.Fatalf("ProcessFile() failed: %s", result.Error)
	}

	// Этажи по возрастанию отметки
	if len(result.Levels) != 2 {
		t.Fatalf("levels = %d, want 2", len(result.Levels))
	}
	if result.Levels[0].Name != "Level A" || result.Levels[0].Elevation != 0 {
		t.Errorf("levels[0] = %+v, want Level A at 0", result.Levels[0])
	}
	if result.Levels[1].Name != "Level B" || result.Levels[1].Elevation != 3 {
		t.Errorf("levels[1] = %+v, want Level B at 3", result.Levels[1])
	}
	levelA, levelB := result.Levels[0].ID, result.Levels[1].ID

	// Обработанные элементы: 2 стены + дверь
	if len(result.Elements) != 3 {
		t.Fatalf("elements = %d, want 3", len(result.Elements))
	}
	for _, element := range result.Elements {
		if element.LevelID == nil {
			t.Errorf("element %s has no level", element.GlobalID)
			continue
		}
		switch element.Type {
		case "IfcWall":
			if *element.LevelID != levelA {
				t.Errorf("wall level = %d, want %d", *element.LevelID, levelA)
			}
		case "IfcDoor":
			if *element.LevelID != levelB {
				t.Errorf("door level = %d, want %d", *element.LevelID, levelB)
			}
		default:
			t.Errorf("unexpected element type %q", element.Type)
		}
		if element.Quantities["Count"] != 1.0 {
			t.Errorf("element %s Count = %v, want 1", element.GlobalID, element.Quantities["Count"])
		}
	}

	// Таблица количеств: IfcDoor перед IfcWall
	rows := result.QuantityTable.TableData
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	door := rows[0]
	if door.ElementKey != "IfcDoor_default" || door.TotalQuantity != 1 {
		t.Errorf("rows[0] = %+v, want IfcDoor_default total 1", door)
	}
	if door.UnitOfMeasure != "units" {
		t.Errorf("door unit = %q, want units", door.UnitOfMeasure)
	}
	if door.LevelQuantities[levelB] != 1 {
		t.Errorf("door level quantities = %v, want %d:1", door.LevelQuantities, levelB)
	}

	wall := rows[1]
	if wall.ElementKey != "IfcWall_default" || wall.TotalQuantity != 2 {
		t.Errorf("rows[1] = %+v, want IfcWall_default total 2", wall)
	}
	if wall.UnitOfMeasure != "m²" {
		t.Errorf("wall unit = %q, want m²", wall.UnitOfMeasure)
	}
	if wall.LevelQuantities[levelA] != 2 {
		t.Errorf("wall level quantities = %v, want %d:2", wall.LevelQuantities, levelA)
	}

	if result.ProjectInfo.Name != "Pipeline Project" {
		t.Errorf("project name = %q", result.ProjectInfo.Name)
	}
}

func TestProcessFileGeometry(t *testing.T) {
	result := ProcessFile(writePipelineFixture(t))
	if !result.Success {
		t.Fatalf("ProcessFile() failed: %s", result.Error)
	}

	geometry := result.Geometry
	if geometry.TotalElements != 3 {
		t.Fatalf("geometry elements = %d, want 3", geometry.TotalElements)
	}
	// 3 продукта с геометрией из 5 (2 этажа без представления)
	if geometry.Metadata.TotalInFile != 5 || geometry.Metadata.WithGeometry != 3 {
		t.Errorf("metadata = %+v, want 5 total / 3 with geometry", geometry.Metadata)
	}
	if geometry.Metadata.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", geometry.Metadata.Skipped)
	}

	byID := make(map[string]int)
	for i, element := range geometry.Elements {
		byID[element.ID] = i
	}

	// Стена: профиль 4x0.3, выдавливание 3, после обмена осей
	// размер (4, 3, 0.3)
	wall := geometry.Elements[byID["wallguid0000000000001"]]
	wantSize := [3]float64{4, 3, 0.3}
	for i := 0; i < 3; i++ {
		if math.Abs(wall.BoundingBox.Size[i]-wantSize[i]) > 1e-9 {
			t.Errorf("wall size = %v, want %v", wall.BoundingBox.Size, wantSize)
			break
		}
	}
	if wall.Type != "wall" || wall.IfcType != "IfcWall" {
		t.Errorf("wall types = %q / %q", wall.Type, wall.IfcType)
	}
	if wall.Color != "#cccccc" {
		t.Errorf("wall color = %q", wall.Color)
	}

	// Дверь размещена на этаже B: мировой Z 3..5.1, после обмена это ось Y
	door := geometry.Elements[byID["doorguid0000000000001"]]
	if got := door.BoundingBox.Min[1]; math.Abs(got-3) > 1e-9 {
		t.Errorf("door min Y = %v, want 3", got)
	}
	if got := door.BoundingBox.Max[1]; math.Abs(got-5.1) > 1e-9 {
		t.Errorf("door max Y = %v, want 5.1", got)
	}

	// Слияние: ключи и этажи присоединены к геометрии
	if wall.ElementKey != "IfcWall_default" {
		t.Errorf("wall merged key = %q, want IfcWall_default", wall.ElementKey)
	}
	if wall.LevelID == nil {
		t.Error("wall merged level = nil")
	}
	if door.ElementKey != "IfcDoor_default" {
		t.Errorf("door merged key = %q, want IfcDoor_default", door.ElementKey)
	}
}

func TestProcessFileIdempotent(t *testing.T) {
	path := writePipelineFixture(t)

	first := ProcessFile(path)
	second := ProcessFile(path)

	if !reflect.DeepEqual(first.QuantityTable, second.QuantityTable) {
		t.Error("repeated processing produced different quantity tables")
	}
	if !reflect.DeepEqual(first.Levels, second.Levels) {
		t.Error("repeated processing produced different levels")
	}
}

func TestProcessFileMissing(t *testing.T) {
	result := ProcessFile(filepath.Join(t.TempDir(), "missing.ifc"))
	if result.Success {
		t.Error("ProcessFile() of missing file should fail")
	}
	if result.Error == "" {
		t.Error("failed result should carry an error message")
	}
}

func TestStatisticsFile(t *testing.T) {
	stats, err := StatisticsFile(writePipelineFixture(t))
	if err != nil {
		t.Fatalf("StatisticsFile() error = %v", err)
	}

	if stats.TotalElements != 5 {
		t.Errorf("total = %d, want 5", stats.TotalElements)
	}
	if stats.ElementsWithGeometry != 3 {
		t.Errorf("with geometry = %d, want 3", stats.ElementsWithGeometry)
	}
	// 3 из 5 = 60.0%
	if stats.GeometryPercentage != 60.0 {
		t.Errorf("percentage = %v, want 60.0", stats.GeometryPercentage)
	}
	if stats.ElementTypes["IfcWall"] != 2 || stats.ElementTypes["IfcDoor"] != 1 {
		t.Errorf("type counts = %v", stats.ElementTypes)
	}
	if stats.SchemaVersion != "IFC4" {
		t.Errorf("schema = %q, want IFC4", stats.SchemaVersion)
	}
}
