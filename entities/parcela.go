package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cuaderno/pkg/geo"
)

type Parcela struct {
	ID               string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PropietarioID    string         `json:"propietario_id" gorm:"index;not null"`
	OrganizacionID   string         `json:"organizacion_id,omitempty" gorm:"index"`
	Nombre           string         `json:"nombre" gorm:"size:100;not null"`
	Superficie       float64        `json:"superficie"` // ha
	TipoCultivo      string         `json:"tipo_cultivo" gorm:"index"`
	Variedad         string         `json:"variedad,omitempty"`
	ReferenciaSigpac string         `json:"referencia_sigpac,omitempty" gorm:"index"`
	Provincia        string         `json:"provincia,omitempty"`
	Municipio        string         `json:"municipio,omitempty"`
	Geometria        *geo.Geometry  `json:"geometria,omitempty" gorm:"serializer:json;type:text"`
	Centroide        *geo.Point     `json:"centroide,omitempty" gorm:"serializer:json;type:text"`
	Notas            string         `json:"notas,omitempty"`
	Activa           bool           `json:"activa"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" gorm:"index"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}

func (p *Parcela) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
