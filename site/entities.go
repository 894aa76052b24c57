package site

// htmlNamedEntities maps the named character references that commonly appear
// in note HTML exported by reference managers. XML only predefines five
// entities, everything else must be declared for the parser explicitly.
var htmlNamedEntities = map[string]string{
	"nbsp":   " ",
	"iexcl":  "¡",
	"cent":   "¢",
	"pound":  "£",
	"curren": "¤",
	"yen":    "¥",
	"sect":   "§",
	"copy":   "©",
	"laquo":  "«",
	"shy":    "­",
	"reg":    "®",
	"deg":    "°",
	"plusmn": "±",
	"para":   "¶",
	"middot": "·",
	"raquo":  "»",
	"frac12": "½",
	"iquest": "¿",
	"times":  "×",
	"divide": "÷",
	"ndash":  "–",
	"mdash":  "—",
	"lsquo":  "‘",
	"rsquo":  "’",
	"sbquo":  "‚",
	"ldquo":  "“",
	"rdquo":  "”",
	"bdquo":  "„",
	"dagger": "†",
	"Dagger": "‡",
	"bull":   "•",
	"hellip": "…",
	"permil": "‰",
	"prime":  "′",
	"Prime":  "″",
	"lsaquo": "‹",
	"rsaquo": "›",
	"euro":   "€",
	"trade":  "™",
	"minus":  "−",
}
