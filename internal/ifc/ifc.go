package ifc

import (
	"fmt"
	"os"

	"ifc-processor/internal/ifc/step"
)

// ============================================================
// IFC File
// ============================================================

// File открытая IFC-модель: декодированные записи + индексы,
// построенные один раз при открытии
type File struct {
	model      *step.Model
	containers map[int64]int64              // элемент -> пространственная структура
	psets      map[int64]map[string]float64 // элемент -> числовые свойства
}

// Open открывает и декодирует IFC-файл по пути.
// Любая ошибка здесь фатальна для всего запроса.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open IFC file: %w", err)
	}
	defer f.Close()

	model, err := step.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode IFC file: %w", err)
	}

	file := &File{model: model}
	file.buildContainmentIndex()
	file.buildPropertyIndex()
	return file, nil
}

// Schema возвращает версию схемы из заголовка (IFC2X3, IFC4, ...)
func (f *File) Schema() string {
	if f.model.Schema == "" {
		return "Unknown"
	}
	return f.model.Schema
}

// ByType перечисляет сущности точного типа в порядке следования в файле
func (f *File) ByType(name string) []*Element {
	records := f.model.ByType(name)
	elements := make([]*Element, 0, len(records))
	for _, rec := range records {
		elements = append(elements, &Element{file: f, rec: rec})
	}
	return elements
}

// Products перечисляет все сущности-продукты (аналог by_type('IfcProduct')).
// Набор типов фиксирован таблицей productTypes.
func (f *File) Products() []*Element {
	var elements []*Element
	for _, name := range productTypeOrder {
		for _, rec := range f.model.ByType(name) {
			elements = append(elements, &Element{file: f, rec: rec})
		}
	}
	return elements
}

// ============================================================
// Element
// ============================================================

// Element обертка над записью продукта/сущности
type Element struct {
	file *File
	rec  *step.Record
}

// LocalID номер строки STEP (#n) — сессионная идентичность
func (e *Element) LocalID() int64 {
	return e.rec.ID
}

// GlobalID глобальный текстовый идентификатор (GlobalId, атрибут 0)
func (e *Element) GlobalID() string {
	return e.rec.AttrString(0)
}

// TypeName каноническое имя типа ("IfcWall")
func (e *Element) TypeName() string {
	if canonical, ok := canonicalTypeNames[e.rec.Type]; ok {
		return canonical
	}
	return e.rec.Type
}

// Name атрибут Name (атрибут 2 у всех продуктов), пустая строка если не задан
func (e *Element) Name() string {
	return e.rec.AttrString(2)
}

// HasRepresentation есть ли у продукта геометрическое представление (атрибут 6)
func (e *Element) HasRepresentation() bool {
	return e.rec.Attr(6) != nil
}

// Container возвращает пространственную структуру, содержащую элемент
// (из IFCRELCONTAINEDINSPATIALSTRUCTURE), или nil
func (e *Element) Container() *Element {
	containerID, ok := e.file.containers[e.rec.ID]
	if !ok {
		return nil
	}
	rec := e.file.model.Get(containerID)
	if rec == nil {
		return nil
	}
	return &Element{file: e.file, rec: rec}
}

// IsStorey истинно для этажей здания
func (e *Element) IsStorey() bool {
	return e.rec.Type == "IFCBUILDINGSTOREY"
}

// Record низкоуровневый доступ для геометрического билдера
func (e *Element) Record() *step.Record {
	return e.rec
}

// Model низкоуровневый доступ к декодированной модели
func (e *Element) Model() *step.Model {
	return e.file.model
}

// ============================================================
// Indexes
// ============================================================

// buildContainmentIndex строит индекс элемент -> контейнер по
// всем отношениям IFCRELCONTAINEDINSPATIALSTRUCTURE
func (f *File) buildContainmentIndex() {
	f.containers = make(map[int64]int64)

	for _, rel := range f.model.ByType("IFCRELCONTAINEDINSPATIALSTRUCTURE") {
		structure, ok := rel.Attr(5).(step.Ref)
		if !ok {
			continue
		}
		for _, item := range rel.AttrList(4) {
			if ref, ok := item.(step.Ref); ok {
				f.containers[int64(ref)] = int64(structure)
			}
		}
	}
}

// ============================================================
// Project info
// ============================================================

// ProjectName имя проекта из IFCPROJECT (fallback "IFC Project")
func (f *File) ProjectName() string {
	for _, project := range f.model.ByType("IFCPROJECT") {
		if name := project.AttrString(2); name != "" {
			return name
		}
	}
	return "IFC Project"
}

// ProjectDescription описание проекта, nil если не задано
func (f *File) ProjectDescription() *string {
	for _, project := range f.model.ByType("IFCPROJECT") {
		if desc := project.AttrString(3); desc != "" {
			return &desc
		}
	}
	return nil
}

// TotalRecords общее число записей в файле
func (f *File) TotalRecords() int {
	return f.model.Len()
}

// ============================================================
// Product type table
// ============================================================

// productTypeOrder фиксированный набор типов-продуктов.
// ifcopenshell обходит иерархию схемы; здесь контракт коллаборатора
// закрыт таблицей продуктов, встречающихся в SPF-файлах.
var productTypeOrder = []string{
	"IFCWALL", "IFCWALLSTANDARDCASE", "IFCSLAB", "IFCCOLUMN", "IFCBEAM",
	"IFCDOOR", "IFCWINDOW", "IFCSTAIR", "IFCSTAIRFLIGHT", "IFCRAILING",
	"IFCRAMP", "IFCRAMPFLIGHT", "IFCROOF", "IFCCURTAINWALL", "IFCMEMBER",
	"IFCPLATE", "IFCCOVERING", "IFCFLOWTERMINAL", "IFCBUILDINGELEMENTPROXY",
	"IFCFURNISHINGELEMENT", "IFCSPACE", "IFCSITE", "IFCBUILDING",
	"IFCBUILDINGSTOREY", "IFCFOOTING", "IFCPILE", "IFCOPENINGELEMENT",
	"IFCANNOTATION", "IFCGRID", "IFCDISTRIBUTIONELEMENT", "IFCFLOWSEGMENT",
	"IFCFLOWFITTING", "IFCFLOWCONTROLLER", "IFCTRANSPORTELEMENT",
	"IFCELEMENTASSEMBLY", "IFCDISCRETEACCESSORY", "IFCFASTENER",
	"IFCMECHANICALFASTENER",
}

// canonicalTypeNames восстанавливает CamelCase-написание типа
var canonicalTypeNames = map[string]string{
	"IFCWALL":                  "IfcWall",
	"IFCWALLSTANDARDCASE":      "IfcWallStandardCase",
	"IFCSLAB":                  "IfcSlab",
	"IFCCOLUMN":                "IfcColumn",
	"IFCBEAM":                  "IfcBeam",
	"IFCDOOR":                  "IfcDoor",
	"IFCWINDOW":                "IfcWindow",
	"IFCSTAIR":                 "IfcStair",
	"IFCSTAIRFLIGHT":           "IfcStairFlight",
	"IFCRAILING":               "IfcRailing",
	"IFCRAMP":                  "IfcRamp",
	"IFCRAMPFLIGHT":            "IfcRampFlight",
	"IFCROOF":                  "IfcRoof",
	"IFCCURTAINWALL":           "IfcCurtainWall",
	"IFCMEMBER":                "IfcMember",
	"IFCPLATE":                 "IfcPlate",
	"IFCCOVERING":              "IfcCovering",
	"IFCFLOWTERMINAL":          "IfcFlowTerminal",
	"IFCBUILDINGELEMENTPROXY":  "IfcBuildingElementProxy",
	"IFCFURNISHINGELEMENT":     "IfcFurnishingElement",
	"IFCSPACE":                 "IfcSpace",
	"IFCSITE":                  "IfcSite",
	"IFCBUILDING":              "IfcBuilding",
	"IFCBUILDINGSTOREY":        "IfcBuildingStorey",
	"IFCFOOTING":               "IfcFooting",
	"IFCPILE":                  "IfcPile",
	"IFCOPENINGELEMENT":        "IfcOpeningElement",
	"IFCANNOTATION":            "IfcAnnotation",
	"IFCGRID":                  "IfcGrid",
	"IFCDISTRIBUTIONELEMENT":   "IfcDistributionElement",
	"IFCFLOWSEGMENT":           "IfcFlowSegment",
	"IFCFLOWFITTING":           "IfcFlowFitting",
	"IFCFLOWCONTROLLER":        "IfcFlowController",
	"IFCTRANSPORTELEMENT":      "IfcTransportElement",
	"IFCELEMENTASSEMBLY":       "IfcElementAssembly",
	"IFCDISCRETEACCESSORY":     "IfcDiscreteAccessory",
	"IFCFASTENER":              "IfcFastener",
	"IFCMECHANICALFASTENER":    "IfcMechanicalFastener",
	"IFCPROJECT":               "IfcProject",
}
