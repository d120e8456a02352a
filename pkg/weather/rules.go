package weather

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	AlertHelada      = "helada"
	AlertCalor       = "calor"
	AlertViento      = "viento"
	AlertLluvia      = "lluvia"
	AlertTratamiento = "tratamiento"

	SeveridadBaja  = "baja"
	SeveridadMedia = "media"
	SeveridadAlta  = "alta"
)

// Thresholds drive the alert rules. Temperatures in °C, wind in km/h,
// rain in mm/day, probabilities in %.
type Thresholds struct {
	Helada         float64 `json:"helada"`
	HeladaFuerte   float64 `json:"helada_fuerte"`
	Calor          float64 `json:"calor"`
	CalorExtremo   float64 `json:"calor_extremo"`
	Viento         float64 `json:"viento"`
	VientoFuerte   float64 `json:"viento_fuerte"`
	Lluvia         float64 `json:"lluvia"`
	ProbLluvia     float64 `json:"prob_lluvia"`
	VientoTrat     float64 `json:"viento_tratamiento"`
	ProbLluviaTrat float64 `json:"prob_lluvia_tratamiento"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Helada:         0,
		HeladaFuerte:   -3,
		Calor:          35,
		CalorExtremo:   40,
		Viento:         40,
		VientoFuerte:   60,
		Lluvia:         20,
		ProbLluvia:     80,
		VientoTrat:     15,
		ProbLluviaTrat: 60,
	}
}

type Alert struct {
	Fecha     string  `json:"fecha"`
	Tipo      string  `json:"tipo"`
	Severidad string  `json:"severidad"`
	Mensaje   string  `json:"mensaje"`
	Valor     float64 `json:"valor"`
}

// Evaluate applies the thresholds to every forecast day.
func (t Thresholds) Evaluate(f *Forecast) []Alert {
	if f == nil {
		return nil
	}
	out := []Alert{}
	for _, d := range f.Dias {
		if d.TempMin <= t.Helada {
			sev := SeveridadMedia
			if d.TempMin <= t.HeladaFuerte {
				sev = SeveridadAlta
			}
			out = append(out, Alert{d.Fecha, AlertHelada, sev, fmt.Sprintf("Riesgo de helada: mínima de %.1f °C", d.TempMin), d.TempMin})
		}
		if d.TempMax >= t.Calor {
			sev := SeveridadMedia
			if d.TempMax >= t.CalorExtremo {
				sev = SeveridadAlta
			}
			out = append(out, Alert{d.Fecha, AlertCalor, sev, fmt.Sprintf("Calor intenso: máxima de %.1f °C", d.TempMax), d.TempMax})
		}
		wind := max(d.VientoKmh, d.RachaKmh)
		if wind >= t.Viento {
			sev := SeveridadMedia
			if wind >= t.VientoFuerte {
				sev = SeveridadAlta
			}
			out = append(out, Alert{d.Fecha, AlertViento, sev, fmt.Sprintf("Viento fuerte: %.0f km/h", wind), wind})
		}
		if d.PrecipMM >= t.Lluvia || d.ProbPrecip >= t.ProbLluvia {
			sev := SeveridadBaja
			if d.PrecipMM >= t.Lluvia {
				sev = SeveridadMedia
			}
			out = append(out, Alert{d.Fecha, AlertLluvia, sev,
				fmt.Sprintf("Lluvia: %.1f mm (probabilidad %.0f%%)", d.PrecipMM, d.ProbPrecip), d.PrecipMM})
		}
		if d.VientoKmh > t.VientoTrat || d.ProbPrecip >= t.ProbLluviaTrat {
			why := fmt.Sprintf("viento %.0f km/h", d.VientoKmh)
			if d.ProbPrecip >= t.ProbLluviaTrat {
				why = fmt.Sprintf("probabilidad de lluvia %.0f%%", d.ProbPrecip)
			}
			out = append(out, Alert{d.Fecha, AlertTratamiento, SeveridadBaja,
				"No se recomienda tratar: " + why, d.VientoKmh})
		}
	}
	return out
}

// LoadThresholds starts from the defaults and applies overrides from a CSV
// and/or an XLSX file with "clave,valor" rows. Empty paths are skipped.
func LoadThresholds(csvPath, xlsxPath string) (Thresholds, error) {
	t := DefaultThresholds()
	if csvPath != "" {
		rows, err := readCSV(csvPath)
		if err != nil {
			return t, err
		}
		if err := t.apply(rows); err != nil {
			return t, fmt.Errorf("%s: %w", csvPath, err)
		}
	}
	if xlsxPath != "" {
		rows, err := readXLSX(xlsxPath)
		if err != nil {
			return t, err
		}
		if err := t.apply(rows); err != nil {
			return t, fmt.Errorf("%s: %w", xlsxPath, err)
		}
	}
	return t, nil
}

func norm(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "\uFEFF") // BOM
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

func (t *Thresholds) fields() map[string]*float64 {
	return map[string]*float64{
		"helada":                &t.Helada,
		"heladafuerte":          &t.HeladaFuerte,
		"calor":                 &t.Calor,
		"calorextremo":          &t.CalorExtremo,
		"viento":                &t.Viento,
		"vientofuerte":          &t.VientoFuerte,
		"lluvia":                &t.Lluvia,
		"problluvia":            &t.ProbLluvia,
		"vientotratamiento":     &t.VientoTrat,
		"problluviatratamiento": &t.ProbLluviaTrat,
	}
}

// apply reads key/value rows; a leading header row is tolerated.
func (t *Thresholds) apply(rows [][]string) error {
	fields := t.fields()
	for i, rec := range rows {
		if len(rec) < 2 {
			continue
		}
		key, raw := norm(rec[0]), strings.TrimSpace(rec[1])
		if i == 0 && (key == "clave" || key == "key" || key == "regla") {
			continue
		}
		dst, ok := fields[key]
		if !ok {
			return fmt.Errorf("umbral desconocido %q", rec[0])
		}
		v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil {
			return fmt.Errorf("valor no numérico para %q: %q", rec[0], raw)
		}
		*dst = v
	}
	return nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	var out [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// readXLSX reads the first sheet.
func readXLSX(path string) ([][]string, error) {
	x, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer x.Close()
	sheets := x.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: libro sin hojas", path)
	}
	return x.GetRows(sheets[0])
}
