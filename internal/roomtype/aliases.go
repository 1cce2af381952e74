package roomtype

// DefaultTable is the built-in alias table. An external config source can
// override it at runtime (see Provider); these defaults are also the
// fallback whenever that source is unreachable.
func DefaultTable() Table {
	t := Table{Aliases: make(map[string]Token, 128)}

	add := func(tok Token, words ...string) {
		for _, w := range words {
			t.Aliases[w] = tok
		}
	}

	// Bed types
	add(Token{Code: "KNG", Name: "King", Category: CatBed}, "king")
	add(Token{Code: "QUN", Name: "Queen", Category: CatBed}, "queen")
	add(Token{Code: "TWN", Name: "Twin", Category: CatBed}, "twin", "ikiz")
	add(Token{Code: "DBL", Name: "Double", Category: CatBed}, "double", "doble", "dubbel", "çift")
	add(Token{Code: "SGL", Name: "Single", Category: CatBed}, "single", "tek", "individual", "einzelzimmer")

	// Classes
	add(Token{Code: "STD", Name: "Standard", Category: CatClass},
		"standard", "standart", "std", "classic", "klasik", "estándar", "estandar")
	add(Token{Code: "ECO", Name: "Economy", Category: CatClass},
		"economy", "ekonomik", "budget", "económica", "economica")
	add(Token{Code: "SUP", Name: "Superior", Category: CatClass}, "superior", "süperior")
	add(Token{Code: "DLX", Name: "Deluxe", Category: CatClass}, "deluxe", "delüks", "deluks", "lujo")
	add(Token{Code: "EXE", Name: "Executive", Category: CatClass}, "executive", "ejecutiva")
	add(Token{Code: "JNR", Name: "Junior", Category: CatClass}, "junior", "jünior")
	add(Token{Code: "FAM", Name: "Family", Category: CatClass}, "family", "aile", "familiar", "familien")
	add(Token{Code: "STU", Name: "Studio", Category: CatClass}, "studio", "stüdyo", "estudio")
	add(Token{Code: "SUI", Name: "Suite", Category: CatClass}, "suite", "suit", "süit")
	add(Token{Code: "VIL", Name: "Villa", Category: CatClass}, "villa", "villen")
	add(Token{Code: "PRS", Name: "Presidential", Category: CatClass},
		"presidential", "kral", "presidencial")

	// Views
	add(Token{Code: "SV", Name: "Sea View", Category: CatView},
		"sea", "deniz", "ocean", "okyanus", "mer", "meer", "mar")
	add(Token{Code: "CV", Name: "City View", Category: CatView}, "city", "şehir", "sehir", "ciudad")
	add(Token{Code: "GV", Name: "Garden View", Category: CatView}, "garden", "bahçe", "bahce", "jardín", "jardin")
	add(Token{Code: "MV", Name: "Mountain View", Category: CatView}, "mountain", "dağ", "dag", "montaña", "montana")
	add(Token{Code: "PV", Name: "Pool View", Category: CatView}, "pool", "havuz", "piscina")

	// Attributes
	add(Token{Code: "BLC", Name: "Balcony", Category: CatAttribute}, "balcony", "balkon", "balcón", "balcon")
	add(Token{Code: "TRC", Name: "Terrace", Category: CatAttribute}, "terrace", "teras", "terraza")
	add(Token{Code: "JAC", Name: "Jacuzzi", Category: CatAttribute}, "jacuzzi", "jakuzi")
	add(Token{Code: "KIT", Name: "Kitchenette", Category: CatAttribute}, "kitchenette", "mutfak")

	return t
}

// SynonymsFor returns every alias word that maps to the same token as word.
// Used by the raw-substring matching strategy to bridge locales.
func (t Table) SynonymsFor(word string) []string {
	tok, ok := t.Aliases[word]
	if !ok {
		return nil
	}
	var out []string
	for w, cand := range t.Aliases {
		if cand.Code == tok.Code {
			out = append(out, w)
		}
	}
	return out
}
