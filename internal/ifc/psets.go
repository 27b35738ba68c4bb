package ifc

import (
	"ifc-processor/internal/ifc/step"
)

// ============================================================
// Property sets
// ============================================================

// buildPropertyIndex индексирует числовые свойства элементов по всем
// IFCRELDEFINESBYPROPERTIES: наборы свойств (single value) и наборы
// количеств (element quantity) сведены в одну карту имя -> значение.
func (f *File) buildPropertyIndex() {
	f.psets = make(map[int64]map[string]float64)

	for _, rel := range f.model.ByType("IFCRELDEFINESBYPROPERTIES") {
		definition := f.model.Deref(rel.Attr(5))
		if definition == nil {
			continue
		}

		props := f.collectNumericProperties(definition)
		if len(props) == 0 {
			continue
		}

		for _, related := range rel.AttrList(4) {
			ref, ok := related.(step.Ref)
			if !ok {
				continue
			}
			target := f.psets[int64(ref)]
			if target == nil {
				target = make(map[string]float64)
				f.psets[int64(ref)] = target
			}
			for name, value := range props {
				target[name] = value
			}
		}
	}
}

// collectNumericProperties разбирает одно определение свойств
func (f *File) collectNumericProperties(definition *step.Record) map[string]float64 {
	props := make(map[string]float64)

	switch definition.Type {
	case "IFCPROPERTYSET":
		// HasProperties (атрибут 4): IFCPROPERTYSINGLEVALUE
		for _, item := range definition.AttrList(4) {
			prop := f.model.Deref(item)
			if prop == nil || prop.Type != "IFCPROPERTYSINGLEVALUE" {
				continue
			}
			name := prop.AttrString(0)
			if name == "" {
				continue
			}
			if value, ok := step.NumericValue(prop.Attr(2)); ok {
				props[name] = value
			}
		}

	case "IFCELEMENTQUANTITY":
		// Quantities (атрибут 5): IFCQUANTITYLENGTH/AREA/VOLUME/COUNT/WEIGHT
		for _, item := range definition.AttrList(5) {
			quantity := f.model.Deref(item)
			if quantity == nil {
				continue
			}
			switch quantity.Type {
			case "IFCQUANTITYLENGTH", "IFCQUANTITYAREA", "IFCQUANTITYVOLUME",
				"IFCQUANTITYCOUNT", "IFCQUANTITYWEIGHT":
				name := quantity.AttrString(0)
				if name == "" {
					continue
				}
				if value, ok := quantity.AttrFloat(3); ok {
					props[name] = value
				}
			}
		}
	}

	return props
}

// NumericProperties все числовые свойства элемента (из property set'ов
// и quantity set'ов), пустая карта если свойств нет
func (e *Element) NumericProperties() map[string]float64 {
	return e.file.psets[e.rec.ID]
}
