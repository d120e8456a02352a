package entities

import "time"

type WeatherAlert struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ParcelaID     string    `json:"parcela_id" gorm:"type:varchar(36);index"`
	PropietarioID string    `json:"propietario_id" gorm:"index"`
	Fecha         time.Time `json:"fecha" gorm:"index"`
	Tipo          string    `json:"tipo"`      // helada|calor|viento|lluvia|tratamiento
	Severidad     string    `json:"severidad"` // baja|media|alta
	Mensaje       string    `json:"mensaje"`
	Valor         float64   `json:"valor"`
	Fuente        string    `json:"fuente"`
	CreatedAt     time.Time `json:"created_at"`
}
