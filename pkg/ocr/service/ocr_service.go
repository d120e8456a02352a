package service

import (
	"context"

	"cuaderno/entities"
	"cuaderno/pkg/ocr"
)

type ScanInput struct {
	Image    []byte
	Filename string
	Text     string
}

// ScanResult is a stored scan plus the producto ready to attach to an actividad.
type ScanResult struct {
	Scan     *entities.LabelScan   `json:"scan"`
	Etiqueta entities.ProductLabel `json:"etiqueta"`
	Producto entities.Producto     `json:"producto"`
	Registro *ocr.RegistryEntry    `json:"registro,omitempty"`
}

type OCRService interface {
	Scan(ctx context.Context, uid string, in ScanInput) (*ScanResult, error)
	ListScans(ctx context.Context, uid string, limit int) ([]entities.LabelScan, error)
}
