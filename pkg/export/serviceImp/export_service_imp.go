package serviceImp

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"cuaderno/entities"
	"cuaderno/pkg/apperr"
	"cuaderno/pkg/export/repository"
	"cuaderno/pkg/export/service"
	"cuaderno/pkg/subscription"
)

const (
	SheetParcelas     = "Parcelas"
	SheetActividades  = "Actividades"
	SheetTratamientos = "Tratamientos"
)

type FeatureChecker interface {
	RequireFeature(ctx context.Context, uid, feature string) error
}

type exportSvc struct {
	r        repository.ExportRepository
	features FeatureChecker
	log      *zap.Logger
}

func NewExportService(r repository.ExportRepository, features FeatureChecker, log *zap.Logger) service.ExportService {
	return &exportSvc{r: r, features: features, log: log}
}

func (s *exportSvc) Cuaderno(ctx context.Context, uid string, year int, parcelaID string) ([]byte, error) {
	if err := s.features.RequireFeature(ctx, uid, subscription.FeatureExport); err != nil {
		return nil, err
	}
	parcelas, err := s.r.Parcelas(ctx, uid, parcelaID)
	if err != nil {
		return nil, err
	}
	if parcelaID != "" && len(parcelas) == 0 {
		return nil, apperr.NotFound("parcela no encontrada")
	}
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	acts, err := s.r.Actividades(ctx, uid, parcelaID, from, from.AddDate(1, 0, 0))
	if err != nil {
		return nil, err
	}

	x := excelize.NewFile()
	defer x.Close()
	if err := x.SetSheetName(x.GetSheetName(0), SheetParcelas); err != nil {
		return nil, err
	}
	if _, err := x.NewSheet(SheetActividades); err != nil {
		return nil, err
	}
	if _, err := x.NewSheet(SheetTratamientos); err != nil {
		return nil, err
	}
	bold, err := x.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	nombres := map[string]string{}
	rows := [][]any{{"Nombre", "Referencia SIGPAC", "Provincia", "Municipio", "Superficie (ha)", "Cultivo", "Variedad", "Activa"}}
	for _, p := range parcelas {
		nombres[p.ID] = p.Nombre
		rows = append(rows, []any{p.Nombre, p.ReferenciaSigpac, p.Provincia, p.Municipio, p.Superficie, p.TipoCultivo, p.Variedad, siNo(p.Activa)})
	}
	if err := writeSheet(x, SheetParcelas, rows, bold); err != nil {
		return nil, err
	}

	rows = [][]any{{"Fecha", "Parcela", "Tipo", "Estado", "Descripción", "Cantidad", "Unidad", "Operario", "Maquinaria", "Condiciones meteo"}}
	trat := [][]any{{"Fecha", "Parcela", "Producto", "Nº registro", "Materia activa", "Dosis", "Unidad", "Plazo seguridad (días)", "Fecha fin plazo", "Operario"}}
	for _, a := range acts {
		rows = append(rows, []any{a.Fecha.Format("2006-01-02"), nombres[a.ParcelaID], string(a.Tipo), string(a.Estado),
			a.Descripcion, deref(a.Cantidad), a.Unidad, a.Operario, a.Maquinaria, a.CondicionesMeteo})
		if a.Tipo != entities.Tratamiento {
			continue
		}
		for _, p := range a.Productos {
			fin := ""
			var plazo any = ""
			if p.PlazoSeguridadDias != nil {
				plazo = *p.PlazoSeguridadDias
				fin = a.Fecha.AddDate(0, 0, *p.PlazoSeguridadDias).Format("2006-01-02")
			}
			trat = append(trat, []any{a.Fecha.Format("2006-01-02"), nombres[a.ParcelaID], p.Nombre, p.NumeroRegistro,
				p.MateriaActiva, deref(p.Dosis), p.Unidad, plazo, fin, a.Operario})
		}
	}
	if err := writeSheet(x, SheetActividades, rows, bold); err != nil {
		return nil, err
	}
	if err := writeSheet(x, SheetTratamientos, trat, bold); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := x.Write(&buf); err != nil {
		return nil, err
	}
	s.log.Info("cuaderno exported", zap.String("uid", uid), zap.Int("year", year),
		zap.Int("parcelas", len(parcelas)), zap.Int("actividades", len(acts)))
	return buf.Bytes(), nil
}

func writeSheet(x *excelize.File, sheet string, rows [][]any, header int) error {
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := x.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := x.SetCellStyle(sheet, "A1", last, header); err != nil {
		return err
	}
	return x.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func deref(f *float64) any {
	if f == nil {
		return ""
	}
	return *f
}

func siNo(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}

// Filename is the download name of a notebook.
func Filename(year int) string { return fmt.Sprintf("cuaderno-de-campo-%d.xlsx", year) }
