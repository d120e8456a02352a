package sigpac

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidReference = errors.New("referencia SIGPAC no válida")

// PP:MMM:AAAA:ZZZZZ:PPPP:RR
var refPattern = regexp.MustCompile(`^(\d{2}):(\d{3}):(\d{4}):(\d{5}):(\d{4}):(\d{2})$`)

// Referencia is a parsed SIGPAC reference.
type Referencia struct {
	Provincia string `json:"provincia"`
	Municipio string `json:"municipio"`
	Agregado  string `json:"agregado"`
	Zona      string `json:"zona"`
	Parcela   string `json:"parcela"`
	Recinto   string `json:"recinto"`
}

func (r Referencia) String() string {
	return strings.Join([]string{r.Provincia, r.Municipio, r.Agregado, r.Zona, r.Parcela, r.Recinto}, ":")
}

// Ints returns the numeric value of each part, in order.
func (r Referencia) Ints() [6]int {
	var out [6]int
	for i, s := range []string{r.Provincia, r.Municipio, r.Agregado, r.Zona, r.Parcela, r.Recinto} {
		out[i], _ = strconv.Atoi(s)
	}
	return out
}

func Parse(s string) (Referencia, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Referencia{}, fmt.Errorf("%w: vacía", ErrInvalidReference)
	}
	m := refPattern.FindStringSubmatch(s)
	if m == nil {
		return Referencia{}, fmt.Errorf("%w: formato esperado PP:MMM:AAAA:ZZZZZ:PPPP:RR", ErrInvalidReference)
	}
	r := Referencia{Provincia: m[1], Municipio: m[2], Agregado: m[3], Zona: m[4], Parcela: m[5], Recinto: m[6]}
	if _, ok := provincias[r.Provincia]; !ok {
		return Referencia{}, fmt.Errorf("%w: provincia %s inexistente (01-52)", ErrInvalidReference, r.Provincia)
	}
	return r, nil
}

// FromParts builds a reference from numeric parts, zero-padding each one.
func FromParts(prov, mun, agr, zona, parcela, recinto int) (Referencia, error) {
	return Parse(fmt.Sprintf("%02d:%03d:%04d:%05d:%04d:%02d", prov, mun, agr, zona, parcela, recinto))
}

// Validation is the result shown by the validate endpoint and CLI.
type Validation struct {
	Valid      bool        `json:"valid"`
	Referencia string      `json:"referencia"`
	Partes     *Referencia `json:"partes,omitempty"`
	Provincia  *Provincia  `json:"provincia,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func Validate(s string) Validation {
	r, err := Parse(s)
	if err != nil {
		return Validation{Valid: false, Referencia: s, Error: err.Error()}
	}
	p := provincias[r.Provincia]
	return Validation{Valid: true, Referencia: r.String(), Partes: &r, Provincia: &p}
}
