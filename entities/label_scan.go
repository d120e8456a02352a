package entities

import "time"

// ProductLabel is what could be read off a product label.
type ProductLabel struct {
	NombreComercial    string          `json:"nombre_comercial,omitempty"`
	NumeroRegistro     string          `json:"numero_registro,omitempty"`
	MateriasActivas    []MateriaActiva `json:"materias_activas,omitempty"`
	Formulacion        string          `json:"formulacion,omitempty"`
	TipoProducto       string          `json:"tipo_producto,omitempty"`
	DosisMin           *float64        `json:"dosis_min,omitempty"`
	DosisMax           *float64        `json:"dosis_max,omitempty"`
	UnidadDosis        string          `json:"unidad_dosis,omitempty"`
	PlazoSeguridadDias *int            `json:"plazo_seguridad_dias,omitempty"`
	Lote               string          `json:"lote,omitempty"`
	Titular            string          `json:"titular,omitempty"`
	Confianza          float64         `json:"confianza"`
}

type MateriaActiva struct {
	Nombre        string `json:"nombre"`
	Concentracion string `json:"concentracion,omitempty"`
}

type LabelScan struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    string       `json:"user_id" gorm:"index"`
	Filename  string       `json:"filename,omitempty"`
	Texto     string       `json:"texto"`
	Etiqueta  ProductLabel `json:"etiqueta" gorm:"serializer:json;type:text"`
	Fuente    string       `json:"fuente"` // ocr|texto
	CreatedAt time.Time    `json:"created_at" gorm:"index"`
}
