package normalize

// stateAbbr maps lowercase US state names (plus DC) to postal codes.
var stateAbbr = map[string]string{
	"alabama":              "al",
	"alaska":               "ak",
	"arizona":              "az",
	"arkansas":             "ar",
	"california":           "ca",
	"colorado":             "co",
	"connecticut":          "ct",
	"delaware":             "de",
	"district of columbia": "dc",
	"florida":              "fl",
	"georgia":              "ga",
	"hawaii":               "hi",
	"idaho":                "id",
	"illinois":             "il",
	"indiana":              "in",
	"iowa":                 "ia",
	"kansas":               "ks",
	"kentucky":             "ky",
	"louisiana":            "la",
	"maine":                "me",
	"maryland":             "md",
	"massachusetts":        "ma",
	"michigan":             "mi",
	"minnesota":            "mn",
	"mississippi":          "ms",
	"missouri":             "mo",
	"montana":              "mt",
	"nebraska":             "ne",
	"nevada":               "nv",
	"new hampshire":        "nh",
	"new jersey":           "nj",
	"new mexico":           "nm",
	"new york":             "ny",
	"north carolina":       "nc",
	"north dakota":         "nd",
	"ohio":                 "oh",
	"oklahoma":             "ok",
	"oregon":               "or",
	"pennsylvania":         "pa",
	"rhode island":         "ri",
	"south carolina":       "sc",
	"south dakota":         "sd",
	"tennessee":            "tn",
	"texas":                "tx",
	"utah":                 "ut",
	"vermont":              "vt",
	"virginia":             "va",
	"washington":           "wa",
	"west virginia":        "wv",
	"wisconsin":            "wi",
	"wyoming":              "wy",
}

// StateCode returns the postal abbreviation for a spelled-out state name, or
// the input unchanged when it is not a known full name.
func StateCode(state string) string {
	if code, ok := stateAbbr[state]; ok {
		return code
	}
	return state
}

// Directional road tokens.
var directionTokens = map[string]bool{
	"n": true, "s": true, "e": true, "w": true,
	"north": true, "south": true, "east": true, "west": true,
}

// roadTypes folds road-type abbreviations and libpostal expansions onto one
// spelling. libpostal sometimes expands "St." to "saint".
var roadTypes = map[string]string{
	"st":        "street",
	"street":    "street",
	"saint":     "street",
	"ave":       "avenue",
	"av":        "avenue",
	"boulevard": "boulevard",
	"blvd":      "boulevard",
	"rd":        "road",
	"road":      "road",
}
