package processor

import (
	"log"

	"ifc-processor/internal/processor/models"
)

// ============================================================
// Merge Stage
// ============================================================

// elementMapping ключ и этаж обработанного элемента для слияния
type elementMapping struct {
	elementKey string
	levelID    *int64
}

// MergeGeometry обогащает записи геометрии данными конвейера обработки,
// соединяя обе коллекции по глобальной идентичности. Элементы вне
// списка релевантных типов получают ключ "<IfcType>_default" и пустой этаж.
func MergeGeometry(geometry *models.GeometryData, elements []models.Element) {
	mapping := make(map[string]elementMapping, len(elements))
	for _, element := range elements {
		if element.GlobalID == "" {
			continue
		}
		mapping[element.GlobalID] = elementMapping{
			elementKey: element.ElementKey,
			levelID:    element.LevelID,
		}
	}

	for i := range geometry.Elements {
		geomElement := &geometry.Elements[i]
		if m, ok := mapping[geomElement.ID]; ok {
			geomElement.ElementKey = m.elementKey
			geomElement.LevelID = m.levelID
			continue
		}

		ifcType := geomElement.IfcType
		if ifcType == "" {
			ifcType = "Unknown"
		}
		geomElement.ElementKey = ifcType + "_default"
		geomElement.LevelID = nil
	}

	log.Printf("[MERGE] Enhanced %d geometry elements", len(geometry.Elements))
}
