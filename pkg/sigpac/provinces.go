package sigpac

import "sort"

type Provincia struct {
	Codigo    string `json:"codigo"`
	Nombre    string `json:"nombre"`
	Comunidad string `json:"comunidad"`
}

// INE province codes.
var provincias = map[string]Provincia{
	"01": {"01", "Araba/Álava", "País Vasco"},
	"02": {"02", "Albacete", "Castilla-La Mancha"},
	"03": {"03", "Alicante/Alacant", "Comunitat Valenciana"},
	"04": {"04", "Almería", "Andalucía"},
	"05": {"05", "Ávila", "Castilla y León"},
	"06": {"06", "Badajoz", "Extremadura"},
	"07": {"07", "Illes Balears", "Illes Balears"},
	"08": {"08", "Barcelona", "Cataluña"},
	"09": {"09", "Burgos", "Castilla y León"},
	"10": {"10", "Cáceres", "Extremadura"},
	"11": {"11", "Cádiz", "Andalucía"},
	"12": {"12", "Castellón/Castelló", "Comunitat Valenciana"},
	"13": {"13", "Ciudad Real", "Castilla-La Mancha"},
	"14": {"14", "Córdoba", "Andalucía"},
	"15": {"15", "A Coruña", "Galicia"},
	"16": {"16", "Cuenca", "Castilla-La Mancha"},
	"17": {"17", "Girona", "Cataluña"},
	"18": {"18", "Granada", "Andalucía"},
	"19": {"19", "Guadalajara", "Castilla-La Mancha"},
	"20": {"20", "Gipuzkoa", "País Vasco"},
	"21": {"21", "Huelva", "Andalucía"},
	"22": {"22", "Huesca", "Aragón"},
	"23": {"23", "Jaén", "Andalucía"},
	"24": {"24", "León", "Castilla y León"},
	"25": {"25", "Lleida", "Cataluña"},
	"26": {"26", "La Rioja", "La Rioja"},
	"27": {"27", "Lugo", "Galicia"},
	"28": {"28", "Madrid", "Comunidad de Madrid"},
	"29": {"29", "Málaga", "Andalucía"},
	"30": {"30", "Murcia", "Región de Murcia"},
	"31": {"31", "Navarra", "Comunidad Foral de Navarra"},
	"32": {"32", "Ourense", "Galicia"},
	"33": {"33", "Asturias", "Principado de Asturias"},
	"34": {"34", "Palencia", "Castilla y León"},
	"35": {"35", "Las Palmas", "Canarias"},
	"36": {"36", "Pontevedra", "Galicia"},
	"37": {"37", "Salamanca", "Castilla y León"},
	"38": {"38", "Santa Cruz de Tenerife", "Canarias"},
	"39": {"39", "Cantabria", "Cantabria"},
	"40": {"40", "Segovia", "Castilla y León"},
	"41": {"41", "Sevilla", "Andalucía"},
	"42": {"42", "Soria", "Castilla y León"},
	"43": {"43", "Tarragona", "Cataluña"},
	"44": {"44", "Teruel", "Aragón"},
	"45": {"45", "Toledo", "Castilla-La Mancha"},
	"46": {"46", "Valencia/València", "Comunitat Valenciana"},
	"47": {"47", "Valladolid", "Castilla y León"},
	"48": {"48", "Bizkaia", "País Vasco"},
	"49": {"49", "Zamora", "Castilla y León"},
	"50": {"50", "Zaragoza", "Aragón"},
	"51": {"51", "Ceuta", "Ceuta"},
	"52": {"52", "Melilla", "Melilla"},
}

func LookupProvincia(code string) (Provincia, bool) {
	p, ok := provincias[code]
	return p, ok
}

// Provincias returns all provinces ordered by code.
func Provincias() []Provincia {
	out := make([]Provincia, 0, len(provincias))
	for _, p := range provincias {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codigo < out[j].Codigo })
	return out
}
