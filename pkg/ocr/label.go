package ocr

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"cuaderno/entities"
)

var (
	reNombre    = regexp.MustCompile(`(?im)^\s*nombre\s+comercial\s*[:.]?\s*(.+)$`)
	reRegistro  = regexp.MustCompile(`(?i)(?:registro|reg\.)[^\n\d]{0,60}?((?:ES-)?\d{4,6}(?:[/-]\d{1,3})?)\b`)
	reComp      = regexp.MustCompile(`(?im)^\s*(?:composici[oó]n|materias?\s+activas?|riqueza)\s*[:.]?\s*(.+)$`)
	reMateria   = regexp.MustCompile(`(?i)^\s*([\p{L}][\p{L}\s\-]{1,60}?)\s*(\d+(?:[.,]\d+)?\s*(?:%\s*(?:p/p|p/v|\[p/p\]|\[p/v\])?|g/l|g/kg))`)
	reFormul    = regexp.MustCompile(`(?im)^\s*(?:formulaci[oó]n|tipo\s+de\s+formulaci[oó]n)\s*[:.]?\s*(.+)$`)
	reFormCode  = regexp.MustCompile(`[\[(]\s*(SC|EC|WG|WP|SL|SE|EW|CS|OD|GR|DC|ME|SG|WDG|SP|DP)\s*[\])]`)
	unidades    = `(l/ha|kg/ha|ml/hl|g/hl|cc/hl|ml/ha|g/ha|l/hl|kg/hl|l/1000\s*l|%)`
	reDosisRng  = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:-|–|a)\s*(\d+(?:[.,]\d+)?)\s*` + unidades)
	reDosisOne  = regexp.MustCompile(`(?i)dosis[^\n\d]{0,30}(\d+(?:[.,]\d+)?)\s*` + unidades)
	rePlazo     = regexp.MustCompile(`(?i)plazo\s+de\s+seguridad[^\n\d]{0,30}?(?:(\d+)\s*(?:d[ií]as)?|(NP)\b|(no\s+procede))`)
	reLote      = regexp.MustCompile(`(?i)\blote\s*(?:n[ºo°.]\s*)?[:.]?\s*([A-Z0-9][A-Z0-9\-/]{2,})`)
	reTitular   = regexp.MustCompile(`(?im)^\s*titular(?:\s+del\s+registro)?\s*[:.]?\s*(.+)$`)
	reSplitMat  = regexp.MustCompile(`\s*(?:\+|;|,\s+|\by\b)\s*`)
	reFieldLine = regexp.MustCompile(`(?i)^(composici|formulaci|n[ºo°]|registro|dosis|plazo|lote|titular|materia|riqueza|precauciones|modo\s+de\s+empleo)`)
)

var tiposProducto = []string{
	"herbicida", "fungicida", "insecticida", "acaricida", "nematicida",
	"molusquicida", "bactericida", "fitorregulador", "fertilizante", "abono",
}

// labelFields is the number of fields ParseLabel tries to find.
const labelFields = 8

// ParseLabel extracts the fields of a plant protection product label.
// Confianza is the share of fields that were found.
func ParseLabel(text string) entities.ProductLabel {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var l entities.ProductLabel
	found := 0

	if m := reNombre.FindStringSubmatch(text); m != nil {
		l.NombreComercial = clean(m[1])
	} else {
		l.NombreComercial = guessNombre(text)
	}
	if l.NombreComercial != "" {
		found++
	}
	if m := reRegistro.FindStringSubmatch(text); m != nil {
		l.NumeroRegistro = strings.ToUpper(m[1])
		found++
	}
	if m := reComp.FindStringSubmatch(text); m != nil {
		l.MateriasActivas = parseMaterias(m[1])
	}
	if len(l.MateriasActivas) > 0 {
		found++
	}
	if m := reFormul.FindStringSubmatch(text); m != nil {
		l.Formulacion = clean(m[1])
	} else if m := reFormCode.FindStringSubmatch(text); m != nil {
		l.Formulacion = m[1]
	}
	if l.Formulacion != "" {
		found++
	}
	low := strings.ToLower(text)
	for _, t := range tiposProducto {
		if strings.Contains(low, t) {
			l.TipoProducto = t
			found++
			break
		}
	}
	if m := reDosisRng.FindStringSubmatch(text); m != nil {
		a, b := num(m[1]), num(m[2])
		if a > b {
			a, b = b, a
		}
		l.DosisMin, l.DosisMax, l.UnidadDosis = &a, &b, unidad(m[3])
		found++
	} else if m := reDosisOne.FindStringSubmatch(text); m != nil {
		a := num(m[1])
		l.DosisMin, l.DosisMax, l.UnidadDosis = &a, &a, unidad(m[2])
		found++
	}
	if m := rePlazo.FindStringSubmatch(text); m != nil {
		d := 0
		if m[1] != "" {
			d, _ = strconv.Atoi(m[1])
		}
		l.PlazoSeguridadDias = &d
		found++
	}
	if m := reLote.FindStringSubmatch(text); m != nil {
		l.Lote = m[1]
		found++
	}
	if m := reTitular.FindStringSubmatch(text); m != nil {
		l.Titular = clean(m[1])
	}
	l.Confianza = math.Round(float64(found)/labelFields*100) / 100
	return l
}

// ToProducto maps a label onto the producto of an actividad.
func ToProducto(l entities.ProductLabel) entities.Producto {
	p := entities.Producto{
		Nombre:             l.NombreComercial,
		NumeroRegistro:     l.NumeroRegistro,
		Dosis:              l.DosisMin,
		Unidad:             l.UnidadDosis,
		PlazoSeguridadDias: l.PlazoSeguridadDias,
	}
	names := make([]string, 0, len(l.MateriasActivas))
	for _, m := range l.MateriasActivas {
		names = append(names, m.Nombre)
	}
	p.MateriaActiva = strings.Join(names, " + ")
	return p
}

func parseMaterias(s string) []entities.MateriaActiva {
	var out []entities.MateriaActiva
	for _, part := range reSplitMat.Split(s, -1) {
		if m := reMateria.FindStringSubmatch(part); m != nil {
			out = append(out, entities.MateriaActiva{
				Nombre:        clean(m[1]),
				Concentracion: strings.Join(strings.Fields(m[2]), " "),
			})
		}
	}
	return out
}

// guessNombre takes the first line that looks like a trade name.
func guessNombre(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = clean(line)
		if len([]rune(line)) < 3 || len(line) > 60 || reFieldLine.MatchString(line) {
			continue
		}
		low := strings.ToLower(line)
		isTipo := false
		for _, t := range tiposProducto {
			if low == t {
				isTipo = true
			}
		}
		if !isTipo && strings.IndexFunc(line, isLetter) >= 0 {
			return line
		}
	}
	return ""
}

func isLetter(r rune) bool { return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') }

func clean(s string) string {
	return strings.Trim(strings.Join(strings.Fields(s), " "), " .:;-")
}

func num(s string) float64 {
	f, _ := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	return f
}

func unidad(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}
