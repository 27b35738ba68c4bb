package ifc

import (
	"math"

	"ifc-processor/internal/ifc/step"
)

// ============================================================
// Placement resolution
// ============================================================

// Mat4 матрица 4x4 (row-major), мировая трансформация размещения
type Mat4 [4][4]float64

// Identity единичная матрица
func Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Mul произведение a*b
func (a Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// TransformPoint применяет матрицу к точке
func (a Mat4) TransformPoint(p [3]float64) [3]float64 {
	return [3]float64{
		a[0][0]*p[0] + a[0][1]*p[1] + a[0][2]*p[2] + a[0][3],
		a[1][0]*p[0] + a[1][1]*p[1] + a[1][2]*p[2] + a[1][3],
		a[2][0]*p[0] + a[2][1]*p[1] + a[2][2]*p[2] + a[2][3],
	}
}

// TranslationZ вертикальная составляющая переноса
func (a Mat4) TranslationZ() float64 {
	return a[2][3]
}

// PlacementMatrix разворачивает цепочку IFCLOCALPLACEMENT элемента
// в мировую матрицу. nil, если размещение отсутствует или не разрешимо.
func (e *Element) PlacementMatrix() *Mat4 {
	placement, ok := e.rec.Attr(5).(step.Ref)
	if !ok {
		return nil
	}
	return resolveLocalPlacement(e.file.model, int64(placement), 0)
}

// resolveLocalPlacement рекурсивно собирает parent * local.
// Глубина ограничена на случай циклических ссылок в битых файлах.
func resolveLocalPlacement(model *step.Model, id int64, depth int) *Mat4 {
	if depth > 64 {
		return nil
	}

	rec := model.Get(id)
	if rec == nil || rec.Type != "IFCLOCALPLACEMENT" {
		return nil
	}

	local := Identity()
	if rel, ok := rec.Attr(1).(step.Ref); ok {
		if m := axis2PlacementMatrix(model, int64(rel)); m != nil {
			local = *m
		}
	}

	if parentRef, ok := rec.Attr(0).(step.Ref); ok {
		if parent := resolveLocalPlacement(model, int64(parentRef), depth+1); parent != nil {
			combined := parent.Mul(local)
			return &combined
		}
	}

	return &local
}

// axis2PlacementMatrix строит матрицу из IFCAXIS2PLACEMENT3D:
// location + оси Z (Axis) и X (RefDirection), достроенные по Граму-Шмидту
func axis2PlacementMatrix(model *step.Model, id int64) *Mat4 {
	rec := model.Get(id)
	if rec == nil || rec.Type != "IFCAXIS2PLACEMENT3D" {
		return nil
	}

	location := [3]float64{}
	if point := model.Deref(rec.Attr(0)); point != nil && point.Type == "IFCCARTESIANPOINT" {
		location = cartesianPoint(point)
	}

	zAxis := [3]float64{0, 0, 1}
	if axis := model.Deref(rec.Attr(1)); axis != nil && axis.Type == "IFCDIRECTION" {
		if d, ok := direction(axis); ok {
			zAxis = d
		}
	}

	xAxis := [3]float64{1, 0, 0}
	if ref := model.Deref(rec.Attr(2)); ref != nil && ref.Type == "IFCDIRECTION" {
		if d, ok := direction(ref); ok {
			xAxis = d
		}
	}

	// Ортогонализация X относительно Z
	dot := xAxis[0]*zAxis[0] + xAxis[1]*zAxis[1] + xAxis[2]*zAxis[2]
	xAxis = [3]float64{
		xAxis[0] - dot*zAxis[0],
		xAxis[1] - dot*zAxis[1],
		xAxis[2] - dot*zAxis[2],
	}
	if !normalize(&xAxis) {
		// X параллелен Z — берем любую перпендикулярную ось
		xAxis = [3]float64{1, 0, 0}
		if math.Abs(zAxis[0]) > 0.9 {
			xAxis = [3]float64{0, 1, 0}
		}
		dot = xAxis[0]*zAxis[0] + xAxis[1]*zAxis[1] + xAxis[2]*zAxis[2]
		xAxis = [3]float64{
			xAxis[0] - dot*zAxis[0],
			xAxis[1] - dot*zAxis[1],
			xAxis[2] - dot*zAxis[2],
		}
		normalize(&xAxis)
	}

	yAxis := [3]float64{
		zAxis[1]*xAxis[2] - zAxis[2]*xAxis[1],
		zAxis[2]*xAxis[0] - zAxis[0]*xAxis[2],
		zAxis[0]*xAxis[1] - zAxis[1]*xAxis[0],
	}

	m := Mat4{
		{xAxis[0], yAxis[0], zAxis[0], location[0]},
		{xAxis[1], yAxis[1], zAxis[1], location[1]},
		{xAxis[2], yAxis[2], zAxis[2], location[2]},
		{0, 0, 0, 1},
	}
	return &m
}

// Axis2Placement матрица IFCAXIS2PLACEMENT3D по значению-ссылке.
// Используется геометрическим билдером для позиций solid'ов.
func Axis2Placement(model *step.Model, v any) *Mat4 {
	if ref, ok := v.(step.Ref); ok {
		return axis2PlacementMatrix(model, int64(ref))
	}
	return nil
}

// CartesianPoint координаты IFCCARTESIANPOINT по записи
func CartesianPoint(rec *step.Record) [3]float64 {
	return cartesianPoint(rec)
}

// Direction нормализованный вектор IFCDIRECTION по записи
func Direction(rec *step.Record) ([3]float64, bool) {
	return direction(rec)
}

// cartesianPoint координаты IFCCARTESIANPOINT (2D дополняется нулевым Z)
func cartesianPoint(rec *step.Record) [3]float64 {
	var p [3]float64
	coords := rec.AttrList(0)
	for i := 0; i < len(coords) && i < 3; i++ {
		if v, ok := step.NumericValue(coords[i]); ok {
			p[i] = v
		}
	}
	return p
}

// direction нормализованный вектор IFCDIRECTION
func direction(rec *step.Record) ([3]float64, bool) {
	var d [3]float64
	ratios := rec.AttrList(0)
	for i := 0; i < len(ratios) && i < 3; i++ {
		if v, ok := step.NumericValue(ratios[i]); ok {
			d[i] = v
		}
	}
	if !normalize(&d) {
		return d, false
	}
	return d, true
}

func normalize(v *[3]float64) bool {
	length := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if length < 1e-12 {
		return false
	}
	v[0] /= length
	v[1] /= length
	v[2] /= length
	return true
}
