package processor

import (
	"log"
	"math"
	"sort"
	"strconv"
	"strings"

	"ifc-processor/internal/ifc"
	"ifc-processor/internal/ifc/geom"
	"ifc-processor/internal/processor/models"
)

// ============================================================
// Geometry Extraction Pipeline
// ============================================================

// MinSizeThreshold минимальный размер бокса по каждой оси (1 мм)
const MinSizeThreshold = 0.001

// materialColors цвета материалов по типу элемента
var materialColors = map[string]string{
	"IfcWall": "#cccccc", "IfcSlab": "#e0e0e0", "IfcColumn": "#888888",
	"IfcBeam": "#996633", "IfcDoor": "#8B4513", "IfcWindow": "#87CEEB",
	"IfcStair": "#696969", "IfcStairFlight": "#556B2F", "IfcRailing": "#CD853F",
	"IfcRamp": "#808080", "IfcRoof": "#654321", "IfcCurtainWall": "#B0C4DE",
	"IfcMember": "#778899", "IfcPlate": "#A0A0A0", "IfcCovering": "#F5F5DC",
	"IfcFlowTerminal": "#FF6347", "IfcBuildingElementProxy": "#DDA0DD",
	"IfcFurnishingElement": "#F0E68C", "IfcSpace": "#E6E6FA",
}

// MaterialColor цвет для типа элемента (#999999 по умолчанию)
func MaterialColor(ifcType string) string {
	if color, ok := materialColors[ifcType]; ok {
		return color
	}
	return "#999999"
}

// GeometryExtractor извлекает упрощенную геометрию одной открытой модели
type GeometryExtractor struct {
	file     *ifc.File
	settings geom.Settings
}

func NewGeometryExtractor(file *ifc.File) *GeometryExtractor {
	return &GeometryExtractor{
		file:     file,
		settings: geom.DefaultSettings(),
	}
}

// ExtractGeometry обходит все продукты с представлением и строит
// ограничивающие объемы. Сбой ядра на одном элементе — пропуск только
// этого элемента.
func (g *GeometryExtractor) ExtractGeometry() models.GeometryData {
	log.Printf("[GEOMETRY] Starting geometry extraction...")

	products := g.file.Products()

	var withGeometry []*ifc.Element
	for _, product := range products {
		if product.HasRepresentation() {
			withGeometry = append(withGeometry, product)
		}
	}

	log.Printf("[GEOMETRY] Processing %d elements with geometry out of %d total", len(withGeometry), len(products))

	elements := make([]models.GeometryElement, 0, len(withGeometry))
	typeCounts := make(map[string]int)
	processed := 0

	for _, product := range withGeometry {
		shape := geom.CreateShape(g.settings, product)
		if shape == nil {
			log.Printf("[GEOMETRY] Error processing %s %s: shape not resolvable", product.TypeName(), product.GlobalID())
			continue
		}

		bbox := BuildBoundingBox(shape.Verts)
		if !validGeometry(bbox) {
			// Защитный фильтр: после клампа недостижимо
			continue
		}

		ifcType := product.TypeName()
		name := product.Name()
		if name == "" {
			name = ifcType + "_" + strconv.FormatInt(product.LocalID(), 10)
		}

		elements = append(elements, models.GeometryElement{
			Type:        strings.ToLower(strings.TrimPrefix(ifcType, "Ifc")),
			ID:          product.GlobalID(),
			Name:        name,
			BoundingBox: bbox,
			IfcType:     ifcType,
			Color:       MaterialColor(ifcType),
		})
		processed++
		typeCounts[ifcType]++
	}

	log.Printf("[GEOMETRY] Successfully extracted %d elements", processed)
	logTypeSummary(typeCounts)

	return models.GeometryData{
		Type:          "SimpleIFCModel",
		Elements:      elements,
		TotalElements: len(elements),
		Metadata: models.GeometryMetadata{
			TotalInFile:  len(products),
			WithGeometry: len(withGeometry),
			Processed:    processed,
			Skipped:      len(withGeometry) - processed,
			ElementTypes: typeCounts,
			ProjectName:  g.file.ProjectName(),
		},
	}
}

func logTypeSummary(typeCounts map[string]int) {
	if len(typeCounts) == 0 {
		return
	}
	names := make([]string, 0, len(typeCounts))
	for name := range typeCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	log.Printf("[GEOMETRY] Element types extracted:")
	for _, name := range names {
		log.Printf("[GEOMETRY]   %s: %d", name, typeCounts[name])
	}
}

// ============================================================
// Bounding box builder
// ============================================================

// BuildBoundingBox строит бокс по вершинам в исходной системе координат.
// Оси Y и Z меняются местами под конвенцию визуализации (up-ось Y).
// Вырожденные оси расширяются до минимального порога; пустой набор
// вершин дает дефолтный бокс.
func BuildBoundingBox(verts [][3]float64) models.BoundingBox {
	if len(verts) == 0 {
		return defaultBoundingBox()
	}

	first := swapYZ(verts[0])
	minC, maxC := first, first

	for _, v := range verts[1:] {
		t := swapYZ(v)
		for i := 0; i < 3; i++ {
			minC[i] = math.Min(minC[i], t[i])
			maxC[i] = math.Max(maxC[i], t[i])
		}
	}

	var size, center [3]float64
	for i := 0; i < 3; i++ {
		size[i] = math.Max(maxC[i]-minC[i], MinSizeThreshold)
		// Центр считается от истинных границ, не от клампнутого размера
		center[i] = (minC[i] + maxC[i]) / 2
	}

	return models.BoundingBox{Min: minC, Max: maxC, Center: center, Size: size}
}

func swapYZ(v [3]float64) [3]float64 {
	return [3]float64{v[0], v[2], v[1]}
}

// defaultBoundingBox куб со стороной 10 порогов, угол в начале координат
func defaultBoundingBox() models.BoundingBox {
	side := MinSizeThreshold * 10
	return models.BoundingBox{
		Min:    [3]float64{0, 0, 0},
		Max:    [3]float64{side, side, side},
		Center: [3]float64{side / 2, side / 2, side / 2},
		Size:   [3]float64{side, side, side},
	}
}

// validGeometry все оси не меньше порога
func validGeometry(bbox models.BoundingBox) bool {
	for i := 0; i < 3; i++ {
		if bbox.Size[i] < MinSizeThreshold {
			return false
		}
	}
	return true
}

// ============================================================
// Statistics
// ============================================================

// Statistics статистика по файлу без построения геометрии
func (g *GeometryExtractor) Statistics() models.Statistics {
	products := g.file.Products()

	typeCounts := make(map[string]int)
	withGeometry := 0
	for _, product := range products {
		if product.HasRepresentation() {
			withGeometry++
			typeCounts[product.TypeName()]++
		}
	}

	percentage := 0.0
	if len(products) > 0 {
		percentage = math.Round(float64(withGeometry)/float64(len(products))*1000) / 10
	}

	return models.Statistics{
		TotalElements:        len(products),
		ElementsWithGeometry: withGeometry,
		GeometryPercentage:   percentage,
		ElementTypes:         typeCounts,
		SchemaVersion:        g.file.Schema(),
		ProjectName:          g.file.ProjectName(),
	}
}
