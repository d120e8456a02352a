package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cuaderno/pkg/geo"
)

type TipoActividad string

const (
	Siembra       TipoActividad = "SIEMBRA"
	Fertilizacion TipoActividad = "FERTILIZACION"
	Tratamiento   TipoActividad = "TRATAMIENTO"
	Riego         TipoActividad = "RIEGO"
	Cosecha       TipoActividad = "COSECHA"
	Labranza      TipoActividad = "LABRANZA"
	Poda          TipoActividad = "PODA"
	Otro          TipoActividad = "OTRO"
)

var TiposActividad = []TipoActividad{Siembra, Fertilizacion, Tratamiento, Riego, Cosecha, Labranza, Poda, Otro}

func (t TipoActividad) Valid() bool {
	for _, v := range TiposActividad {
		if v == t {
			return true
		}
	}
	return false
}

type EstadoActividad string

const (
	Planificada EstadoActividad = "PLANIFICADA"
	EnCurso     EstadoActividad = "EN_CURSO"
	Completada  EstadoActividad = "COMPLETADA"
	Cancelada   EstadoActividad = "CANCELADA"
)

var EstadosActividad = []EstadoActividad{Planificada, EnCurso, Completada, Cancelada}

func (e EstadoActividad) Valid() bool {
	for _, v := range EstadosActividad {
		if v == e {
			return true
		}
	}
	return false
}

// Producto is a phytosanitary or fertiliser product applied in an Actividad.
type Producto struct {
	Nombre             string   `json:"nombre"`
	NumeroRegistro     string   `json:"numero_registro,omitempty"`
	MateriaActiva      string   `json:"materia_activa,omitempty"`
	Dosis              *float64 `json:"dosis,omitempty"`
	Unidad             string   `json:"unidad,omitempty"` // l/ha, kg/ha...
	PlazoSeguridadDias *int     `json:"plazo_seguridad_dias,omitempty"`
}

type Actividad struct {
	ID               string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ParcelaID        string          `json:"parcela_id" gorm:"type:varchar(36);index;not null"`
	PropietarioID    string          `json:"propietario_id" gorm:"index;not null"`
	Tipo             TipoActividad   `json:"tipo" gorm:"index;not null"`
	Fecha            time.Time       `json:"fecha" gorm:"index"`
	Descripcion      string          `json:"descripcion,omitempty"`
	Productos        []Producto      `json:"productos" gorm:"serializer:json;type:text"`
	Cantidad         *float64        `json:"cantidad,omitempty"`
	Unidad           string          `json:"unidad,omitempty"` // kg, m3...
	Coordenadas      *geo.Point      `json:"coordenadas,omitempty" gorm:"serializer:json;type:text"`
	Estado           EstadoActividad `json:"estado" gorm:"index"`
	Operario         string          `json:"operario,omitempty"`
	Maquinaria       string          `json:"maquinaria,omitempty"`
	CondicionesMeteo string          `json:"condiciones_meteo,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"index"`
	DeletedAt        gorm.DeletedAt  `json:"-" gorm:"index"`
}

func (Actividad) TableName() string { return "actividades" }

func (a *Actividad) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// DefaultEstado is COMPLETADA for past dates and PLANIFICADA otherwise.
func DefaultEstado(fecha, now time.Time) EstadoActividad {
	if fecha.After(now) {
		return Planificada
	}
	return Completada
}
