package processor

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"

	"ifc-processor/internal/ifc"
	"ifc-processor/internal/processor/models"
)

// ============================================================
// Element Processing Pipeline
// ============================================================

// relevantElementTypes типы, участвующие в сводной таблице количеств
var relevantElementTypes = map[string]bool{
	"IfcWall": true, "IfcSlab": true, "IfcColumn": true, "IfcBeam": true,
	"IfcDoor": true, "IfcWindow": true, "IfcStair": true, "IfcStairFlight": true,
	"IfcRailing": true, "IfcRamp": true, "IfcRoof": true, "IfcCurtainWall": true,
	"IfcMember": true, "IfcPlate": true, "IfcCovering": true,
	"IfcFlowTerminal": true, "IfcBuildingElementProxy": true,
	"IfcFurnishingElement": true, "IfcSpace": true,
}

// unitMappings единицы измерения по типу элемента
var unitMappings = map[string]string{
	"IfcWall": "m²", "IfcSlab": "m²", "IfcColumn": "units", "IfcBeam": "m",
	"IfcDoor": "units", "IfcWindow": "units", "IfcStair": "units",
	"IfcStairFlight": "units", "IfcRailing": "m", "IfcRamp": "m²",
	"IfcRoof": "m²", "IfcCurtainWall": "m²", "IfcMember": "m",
	"IfcPlate": "m²", "IfcCovering": "m²", "IfcFlowTerminal": "units",
	"IfcBuildingElementProxy": "units", "IfcFurnishingElement": "units",
	"IfcSpace": "m³",
}

// dimensionProperties семь распознаваемых имен размерных свойств
var dimensionProperties = map[string]bool{
	"Length": true, "Width": true, "Height": true, "Thickness": true,
	"Area": true, "Volume": true, "Depth": true,
}

// Processor обрабатывает элементы одной открытой модели.
// Состояние (кэш этажей, аккумулятор) живет в пределах одного запроса.
type Processor struct {
	file   *ifc.File
	levels []models.BuildingLevel // по возрастанию отметки
	table  map[string]*quantityEntry
}

// quantityEntry структурированный аккумулятор вместо строковых ключей
// вида level_<id>_count
type quantityEntry struct {
	total    int
	perLevel map[int64]int
}

func New(file *ifc.File) *Processor {
	return &Processor{
		file:  file,
		table: make(map[string]*quantityEntry),
	}
}

// ============================================================
// Building levels
// ============================================================

// BuildingLevels извлекает этажи, сортирует по отметке и кэширует.
// Должен вызываться до классификации элементов.
func (p *Processor) BuildingLevels() []models.BuildingLevel {
	storeys := p.file.ByType("IfcBuildingStorey")

	levels := make([]models.BuildingLevel, 0, len(storeys))
	for _, storey := range storeys {
		name := storey.Name()
		if name == "" {
			name = fmt.Sprintf("Level %d", storey.LocalID())
		}
		levels = append(levels, models.BuildingLevel{
			ID:        storey.LocalID(),
			Name:      name,
			Elevation: storeyElevation(storey),
			GlobalID:  storey.GlobalID(),
		})
	}

	// Стабильная сортировка: равные отметки остаются в порядке файла
	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].Elevation < levels[j].Elevation
	})

	p.levels = levels
	log.Printf("[PROCESSOR] Found %d building levels", len(levels))
	return levels
}

// storeyElevation отметка этажа из мировой матрицы размещения (Z),
// 0.0 если размещение не разрешимо
func storeyElevation(storey *ifc.Element) float64 {
	if matrix := storey.PlacementMatrix(); matrix != nil {
		return matrix.TranslationZ()
	}
	return 0.0
}

// ============================================================
// Spatial classifier
// ============================================================

// classify определяет этаж элемента: сначала прямой контейнер,
// затем ближайший по Z этаж, иначе nil. Сбои глотаются — это "нет этажа",
// а не ошибка.
func (p *Processor) classify(element *ifc.Element) *int64 {
	// 1) контейнер — этаж: авторитетный ответ
	if container := element.Container(); container != nil && container.IsStorey() {
		id := container.LocalID()
		return &id
	}

	// 2) геометрическое размещение
	if matrix := element.PlacementMatrix(); matrix != nil {
		return p.closestLevel(matrix.TranslationZ())
	}

	return nil
}

// closestLevel этаж с минимальной |z - elevation|; при равенстве побеждает
// первый в порядке обхода (стабильный минимум)
func (p *Processor) closestLevel(z float64) *int64 {
	if len(p.levels) == 0 {
		return nil
	}

	best := p.levels[0]
	bestDiff := math.Abs(z - best.Elevation)
	for _, level := range p.levels[1:] {
		if diff := math.Abs(z - level.Elevation); diff < bestDiff {
			best = level
			bestDiff = diff
		}
	}

	id := best.ID
	return &id
}

// ============================================================
// Dimensions & element key
// ============================================================

// extractDimensions оставляет из свойств элемента только распознаваемые
// размерные имена с положительными значениями, округленными до сотых
func extractDimensions(element *ifc.Element) map[string]float64 {
	dimensions := make(map[string]float64)
	for name, value := range element.NumericProperties() {
		if dimensionProperties[name] && value > 0 {
			dimensions[name] = round2(value)
		}
	}
	return dimensions
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ElementKey канонический ключ группировки: тип + отсортированные пары
// имя:значение, либо "<тип>_default" без размеров
func ElementKey(elementType string, dimensions map[string]float64) string {
	if len(dimensions) == 0 {
		return elementType + "_default"
	}

	names := make([]string, 0, len(dimensions))
	for name, value := range dimensions {
		if value > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return elementType + "_default"
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+":"+formatDimension(dimensions[name]))
	}
	return elementType + "_" + strings.Join(parts, "-")
}

// formatDimension кратчайшая десятичная запись, целые значения с ".0"
// (формат исходных ключей: 1 -> "1.0", 2.345 -> "2.345")
func formatDimension(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ============================================================
// Pipeline
// ============================================================

// ProcessElements обходит все релевантные элементы с геометрией,
// классифицирует, извлекает размеры и наполняет аккумулятор.
// Сбой одного элемента логируется и не прерывает конвейер.
func (p *Processor) ProcessElements() []models.Element {
	log.Printf("[PROCESSOR] Starting element processing...")

	products := p.file.Products()

	var relevant []*ifc.Element
	for _, product := range products {
		if product.HasRepresentation() && relevantElementTypes[product.TypeName()] {
			relevant = append(relevant, product)
		}
	}

	log.Printf("[PROCESSOR] Processing %d relevant elements out of %d total", len(relevant), len(products))

	processed := make([]models.Element, 0, len(relevant))
	for _, element := range relevant {
		data, err := p.processSingleElement(element)
		if err != nil {
			log.Printf("[PROCESSOR] Error processing element %s: %v", element.GlobalID(), err)
			continue
		}
		processed = append(processed, data)
	}

	log.Printf("[PROCESSOR] Successfully processed %d elements", len(processed))
	return processed
}

func (p *Processor) processSingleElement(element *ifc.Element) (models.Element, error) {
	globalID := element.GlobalID()
	if globalID == "" {
		return models.Element{}, fmt.Errorf("element #%d has no GlobalId", element.LocalID())
	}

	elementType := element.TypeName()
	name := element.Name()
	if name == "" {
		name = fmt.Sprintf("%s_%d", elementType, element.LocalID())
	}

	levelID := p.classify(element)
	dimensions := extractDimensions(element)
	key := ElementKey(elementType, dimensions)

	p.accumulate(key, levelID)

	return models.Element{
		ID:         element.LocalID(),
		GlobalID:   globalID,
		Type:       elementType,
		Name:       name,
		LevelID:    levelID,
		Dimensions: dimensions,
		Quantities: map[string]float64{"Count": 1.0},
		ElementKey: key,
	}, nil
}

// ============================================================
// Quantity aggregator
// ============================================================

func (p *Processor) accumulate(key string, levelID *int64) {
	entry := p.table[key]
	if entry == nil {
		entry = &quantityEntry{perLevel: make(map[int64]int)}
		p.table[key] = entry
	}
	entry.total++
	if levelID != nil {
		entry.perLevel[*levelID]++
	}
}

// QuantityTable сводит аккумулятор в отсортированную таблицу.
// Пустой аккумулятор дает пустой список строк, но список этажей
// возвращается всегда.
func (p *Processor) QuantityTable() models.QuantityTable {
	levels := make([]models.BuildingLevel, len(p.levels))
	copy(levels, p.levels)

	if len(p.table) == 0 {
		log.Printf("[PROCESSOR] No quantity data available")
		return models.QuantityTable{TableData: []models.QuantityRow{}, Levels: levels}
	}

	rows := make([]models.QuantityRow, 0, len(p.table))
	for key, entry := range p.table {
		elementType := key
		if idx := strings.Index(key, "_"); idx >= 0 {
			elementType = key[:idx]
		}

		unit := unitMappings[elementType]
		if unit == "" {
			unit = "units"
		}

		perLevel := make(map[int64]int, len(entry.perLevel))
		for levelID, count := range entry.perLevel {
			perLevel[levelID] = count
		}

		rows = append(rows, models.QuantityRow{
			ElementKey:      key,
			ElementType:     elementType,
			UnitOfMeasure:   unit,
			TotalQuantity:   entry.total,
			LevelQuantities: perLevel,
		})
	}

	// Вторичный ключ element_key делает порядок детерминированным
	// независимо от порядка обхода модели
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ElementType != rows[j].ElementType {
			return rows[i].ElementType < rows[j].ElementType
		}
		return rows[i].ElementKey < rows[j].ElementKey
	})

	log.Printf("[PROCESSOR] Generated quantity table with %d element types", len(rows))
	return models.QuantityTable{TableData: rows, Levels: levels}
}

// ============================================================
// Project info
// ============================================================

func (p *Processor) ProjectInfo() models.ProjectInfo {
	return models.ProjectInfo{
		Name:        p.file.ProjectName(),
		Description: p.file.ProjectDescription(),
		Schema:      p.file.Schema(),
	}
}

// ============================================================
// Entry points
// ============================================================

// ProcessFile полный проход: этажи, элементы, таблица количеств,
// геометрия и слияние. Ошибка открытия фатальна для всего запроса.
func ProcessFile(path string) models.ProcessResult {
	log.Printf("[PROCESSOR] Starting IFC file processing: %s", path)

	file, err := ifc.Open(path)
	if err != nil {
		log.Printf("[PROCESSOR] Error processing IFC file: %v", err)
		return models.ProcessResult{Success: false, Error: err.Error()}
	}

	p := New(file)
	levels := p.BuildingLevels()
	elements := p.ProcessElements()
	quantityTable := p.QuantityTable()
	projectInfo := p.ProjectInfo()

	extractor := NewGeometryExtractor(file)
	geometry := extractor.ExtractGeometry()
	MergeGeometry(&geometry, elements)

	log.Printf("[PROCESSOR] Processing complete: %d levels, %d elements", len(levels), len(elements))

	return models.ProcessResult{
		Success:       true,
		Levels:        levels,
		Elements:      elements,
		QuantityTable: &quantityTable,
		Geometry:      &geometry,
		ProjectInfo:   &projectInfo,
	}
}

// ExtractGeometryFile облегченная точка входа: только геометрия
func ExtractGeometryFile(path string) (models.GeometryData, error) {
	file, err := ifc.Open(path)
	if err != nil {
		return models.GeometryData{}, err
	}
	return NewGeometryExtractor(file).ExtractGeometry(), nil
}

// StatisticsFile статистика по файлу без полной обработки
func StatisticsFile(path string) (models.Statistics, error) {
	file, err := ifc.Open(path)
	if err != nil {
		return models.Statistics{}, err
	}
	return NewGeometryExtractor(file).Statistics(), nil
}
