package service

import "context"

type ExportService interface {
	// Cuaderno builds the XLSX field notebook of a year.
	Cuaderno(ctx context.Context, uid string, year int, parcelaID string) ([]byte, error)
}
