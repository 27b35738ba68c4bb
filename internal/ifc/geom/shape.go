package geom

import (
	"math"

	"ifc-processor/internal/ifc"
	"ifc-processor/internal/ifc/step"
)

// ============================================================
// Shape Builder
// ============================================================

// Settings настройки построения форм (аналог ifcopenshell.geom.settings)
type Settings struct {
	UseWorldCoords bool
	WeldVertices   bool
}

// DefaultSettings мировые координаты + сварка вершин
func DefaultSettings() Settings {
	return Settings{UseWorldCoords: true, WeldVertices: true}
}

// Shape триангулированная форма элемента: только вершины,
// ограничивающему объему больше ничего не нужно
type Shape struct {
	Verts [][3]float64
}

// CreateShape строит форму элемента из его представления.
// nil — представление отсутствует или не разрешимо (элемент пропускается);
// Shape с пустыми Verts — представление есть, но точек не нашлось
// (дальше по конвейеру подставляется дефолтный бокс).
func CreateShape(settings Settings, element *ifc.Element) *Shape {
	model := element.Model()

	definition := model.Deref(element.Record().Attr(6))
	if definition == nil || definition.Type != "IFCPRODUCTDEFINITIONSHAPE" {
		return nil
	}

	var verts [][3]float64
	found := false

	// Representations (атрибут 2) -> IFCSHAPEREPRESENTATION -> Items (атрибут 3)
	for _, repRef := range definition.AttrList(2) {
		representation := model.Deref(repRef)
		if representation == nil || representation.Type != "IFCSHAPEREPRESENTATION" {
			continue
		}
		found = true
		for _, itemRef := range representation.AttrList(3) {
			item := model.Deref(itemRef)
			if item == nil {
				continue
			}
			verts = append(verts, itemVertices(model, item)...)
		}
	}

	if !found {
		return nil
	}

	if settings.UseWorldCoords {
		if placement := element.PlacementMatrix(); placement != nil {
			for i := range verts {
				verts[i] = placement.TransformPoint(verts[i])
			}
		}
	}

	if settings.WeldVertices {
		verts = weld(verts)
	}

	return &Shape{Verts: verts}
}

// ============================================================
// Representation items
// ============================================================

func itemVertices(model *step.Model, item *step.Record) [][3]float64 {
	switch item.Type {
	case "IFCEXTRUDEDAREASOLID":
		return extrudedSolidVertices(model, item)
	case "IFCTRIANGULATEDFACESET", "IFCPOLYGONALFACESET":
		return faceSetVertices(model, item)
	default:
		// IFCFACETEDBREP, IFCMAPPEDITEM и прочее: собираем все
		// декартовы точки, достижимые из item
		return closureVertices(model, item)
	}
}

// extrudedSolidVertices углы профиля на базе и на вершине выдавливания
func extrudedSolidVertices(model *step.Model, solid *step.Record) [][3]float64 {
	profile := model.Deref(solid.Attr(0))
	if profile == nil {
		return nil
	}

	base := profileVertices(model, profile)
	if len(base) == 0 {
		return nil
	}

	dir := [3]float64{0, 0, 1}
	if direction := model.Deref(solid.Attr(2)); direction != nil && direction.Type == "IFCDIRECTION" {
		if d, ok := ifc.Direction(direction); ok {
			dir = d
		}
	}
	depth, _ := solid.AttrFloat(3)

	verts := make([][3]float64, 0, len(base)*2)
	for _, p := range base {
		verts = append(verts, p, [3]float64{
			p[0] + dir[0]*depth,
			p[1] + dir[1]*depth,
			p[2] + dir[2]*depth,
		})
	}

	// Позиция solid'а (IFCAXIS2PLACEMENT3D, атрибут 1)
	if position := ifc.Axis2Placement(model, solid.Attr(1)); position != nil {
		for i := range verts {
			verts[i] = position.TransformPoint(verts[i])
		}
	}

	return verts
}

// profileVertices точки 2D-профиля в плоскости z=0
func profileVertices(model *step.Model, profile *step.Record) [][3]float64 {
	switch profile.Type {
	case "IFCRECTANGLEPROFILEDEF":
		// XDim (3), YDim (4); профиль центрирован на своей позиции
		xDim, okX := profile.AttrFloat(3)
		yDim, okY := profile.AttrFloat(4)
		if !okX || !okY {
			return nil
		}
		corners := [][3]float64{
			{-xDim / 2, -yDim / 2, 0},
			{xDim / 2, -yDim / 2, 0},
			{xDim / 2, yDim / 2, 0},
			{-xDim / 2, yDim / 2, 0},
		}
		return applyProfilePosition(model, profile.Attr(2), corners)

	case "IFCCIRCLEPROFILEDEF":
		radius, ok := profile.AttrFloat(3)
		if !ok {
			return nil
		}
		const segments = 16
		ring := make([][3]float64, 0, segments)
		for i := 0; i < segments; i++ {
			angle := 2 * math.Pi * float64(i) / segments
			ring = append(ring, [3]float64{radius * math.Cos(angle), radius * math.Sin(angle), 0})
		}
		return applyProfilePosition(model, profile.Attr(2), ring)

	default:
		// Произвольный профиль: точки его подграфа
		return closureVertices(model, profile)
	}
}

// applyProfilePosition применяет IFCAXIS2PLACEMENT2D (перенос + поворот)
func applyProfilePosition(model *step.Model, positionRef any, points [][3]float64) [][3]float64 {
	position := model.Deref(positionRef)
	if position == nil || position.Type != "IFCAXIS2PLACEMENT2D" {
		return points
	}

	var tx, ty float64
	if location := model.Deref(position.Attr(0)); location != nil && location.Type == "IFCCARTESIANPOINT" {
		p := ifc.CartesianPoint(location)
		tx, ty = p[0], p[1]
	}

	cosA, sinA := 1.0, 0.0
	if ref := model.Deref(position.Attr(1)); ref != nil && ref.Type == "IFCDIRECTION" {
		if d, ok := ifc.Direction(ref); ok {
			cosA, sinA = d[0], d[1]
		}
	}

	out := make([][3]float64, len(points))
	for i, p := range points {
		out[i] = [3]float64{
			p[0]*cosA - p[1]*sinA + tx,
			p[0]*sinA + p[1]*cosA + ty,
			p[2],
		}
	}
	return out
}

// faceSetVertices список координат IFCCARTESIANPOINTLIST3D (атрибут 0)
func faceSetVertices(model *step.Model, faceSet *step.Record) [][3]float64 {
	pointList := model.Deref(faceSet.Attr(0))
	if pointList == nil || pointList.Type != "IFCCARTESIANPOINTLIST3D" {
		return nil
	}
	return faceSetCoordList(pointList)
}

// closureVertices обходит подграф ссылок записи и собирает все
// IFCCARTESIANPOINT. Запасной путь для представлений без
// специализированного разбора.
func closureVertices(model *step.Model, root *step.Record) [][3]float64 {
	visited := map[int64]bool{root.ID: true}
	queue := []*step.Record{root}
	var verts [][3]float64

	for len(queue) > 0 {
		rec := queue[0]
		queue = queue[1:]

		if rec.Type == "IFCCARTESIANPOINT" {
			verts = append(verts, ifc.CartesianPoint(rec))
			continue
		}
		if rec.Type == "IFCCARTESIANPOINTLIST3D" {
			verts = append(verts, faceSetCoordList(rec)...)
			continue
		}

		for _, arg := range rec.Args {
			queue = appendRefs(model, visited, queue, arg)
		}
	}

	return verts
}

func faceSetCoordList(pointList *step.Record) [][3]float64 {
	var verts [][3]float64
	for _, entry := range pointList.AttrList(0) {
		coords, ok := entry.([]any)
		if !ok {
			continue
		}
		var p [3]float64
		for i := 0; i < len(coords) && i < 3; i++ {
			if v, ok := step.NumericValue(coords[i]); ok {
				p[i] = v
			}
		}
		verts = append(verts, p)
	}
	return verts
}

func appendRefs(model *step.Model, visited map[int64]bool, queue []*step.Record, arg any) []*step.Record {
	switch v := arg.(type) {
	case step.Ref:
		if visited[int64(v)] {
			return queue
		}
		visited[int64(v)] = true
		if rec := model.Get(int64(v)); rec != nil {
			queue = append(queue, rec)
		}
	case []any:
		for _, item := range v {
			queue = appendRefs(model, visited, queue, item)
		}
	case step.Typed:
		queue = appendRefs(model, visited, queue, v.Value)
	}
	return queue
}

// weld убирает точные дубликаты вершин, сохраняя порядок
func weld(verts [][3]float64) [][3]float64 {
	if len(verts) == 0 {
		return verts
	}
	seen := make(map[[3]float64]bool, len(verts))
	out := verts[:0]
	for _, v := range verts {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
