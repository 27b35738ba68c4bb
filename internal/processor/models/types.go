package models

// ============================================================
// Building model entities
// ============================================================

// BuildingLevel этаж здания, отсортированный по отметке
type BuildingLevel struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Elevation float64 `json:"elevation"`
	GlobalID  string  `json:"global_id"`
}

// Element обработанный элемент модели (живет в пределах одного запроса)
type Element struct {
	ID         int64              `json:"id"`
	GlobalID   string             `json:"global_id"`
	Type       string             `json:"type"`
	Name       string             `json:"name"`
	LevelID    *int64             `json:"level_id"`
	Dimensions map[string]float64 `json:"dimensions"`
	Quantities map[string]float64 `json:"quantities"`
	ElementKey string             `json:"element_key"`
}

// ============================================================
// Geometry payload
// ============================================================

// BoundingBox осевой ограничивающий объем: min/max/center/size
type BoundingBox struct {
	Min    [3]float64 `json:"min"`
	Max    [3]float64 `json:"max"`
	Center [3]float64 `json:"center"`
	Size   [3]float64 `json:"size"`
}

// GeometryElement запись геометрии для 3D-визуализации.
// ElementKey и LevelID заполняются на стадии слияния.
type GeometryElement struct {
	Type        string      `json:"type"`
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	BoundingBox BoundingBox `json:"boundingBox"`
	IfcType     string      `json:"ifcType"`
	Color       string      `json:"color"`
	ElementKey  string      `json:"element_key,omitempty"`
	LevelID     *int64      `json:"level_id"`
}

type GeometryMetadata struct {
	TotalInFile  int            `json:"totalInFile"`
	WithGeometry int            `json:"withGeometry"`
	Processed    int            `json:"processed"`
	Skipped      int            `json:"skipped"`
	ElementTypes map[string]int `json:"elementTypes"`
	ProjectName  string         `json:"projectName"`
}

type GeometryData struct {
	Type          string            `json:"type"`
	Elements      []GeometryElement `json:"elements"`
	TotalElements int               `json:"totalElements"`
	Metadata      GeometryMetadata  `json:"metadata"`
}

// ============================================================
// Quantity table
// ============================================================

// QuantityRow строка сводной таблицы: одна на element_key
type QuantityRow struct {
	ElementKey      string        `json:"element_key"`
	ElementType     string        `json:"element_type"`
	UnitOfMeasure   string        `json:"unit_of_measure"`
	TotalQuantity   int           `json:"total_quantity"`
	LevelQuantities map[int64]int `json:"level_quantities"`
}

type QuantityTable struct {
	TableData []QuantityRow   `json:"table_data"`
	Levels    []BuildingLevel `json:"levels"`
}

// ============================================================
// Responses
// ============================================================

type ProjectInfo struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Schema      string  `json:"schema"`
}

// ProcessResult полный результат обработки файла
type ProcessResult struct {
	Success       bool            `json:"success"`
	Error         string          `json:"error,omitempty"`
	Levels        []BuildingLevel `json:"levels,omitempty"`
	Elements      []Element       `json:"elements,omitempty"`
	QuantityTable *QuantityTable  `json:"quantity_table,omitempty"`
	Geometry      *GeometryData   `json:"geometry,omitempty"`
	ProjectInfo   *ProjectInfo    `json:"project_info,omitempty"`
}

// Statistics легкая статистика без полной обработки
type Statistics struct {
	TotalElements        int            `json:"total_elements"`
	ElementsWithGeometry int            `json:"elements_with_geometry"`
	GeometryPercentage   float64        `json:"geometry_percentage"`
	ElementTypes         map[string]int `json:"element_types"`
	SchemaVersion        string         `json:"schema_version"`
	ProjectName          string         `json:"project_name"`
}

// APIResponse единая обертка HTTP-ответов
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
