package textutil

// stopwords holds Spanish and English connectors plus noise words that show
// up in chapter filenames and chat requests. Entries are already normalized.
var stopwords = map[string]struct{}{
	// spanish connectors
	"del": {}, "las": {}, "los": {}, "una": {}, "unos": {}, "unas": {},
	"con": {}, "por": {}, "para": {}, "que": {}, "sus": {}, "este": {},
	"esta": {}, "esto": {}, "como": {}, "mas": {}, "pero": {}, "sin": {},
	"sobre": {}, "entre": {}, "hasta": {}, "desde": {}, "muy": {},
	// english connectors
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "this": {},
	"that": {}, "into": {}, "are": {}, "was": {}, "its": {},
	// file and chapter noise
	"capitulo": {}, "capitulos": {}, "cap": {}, "caps": {}, "chapter": {},
	"chapters": {}, "episodio": {}, "episodios": {}, "episode": {},
	"tomo": {}, "vol": {}, "volumen": {}, "volume": {}, "parte": {},
	"part": {}, "temporada": {}, "season": {}, "completo": {}, "completa": {},
	"pdf": {}, "epub": {}, "mobi": {}, "cbz": {}, "cbr": {}, "zip": {},
	"rar": {}, "docx": {}, "jpg": {}, "png": {},
	// request chatter
	"hola": {}, "favor": {}, "quiero": {}, "busco": {}, "necesito": {},
	"pedido": {}, "porfa": {}, "gracias": {},
}

// IsStopword reports whether a normalized token is ignored by Tokenize.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}
