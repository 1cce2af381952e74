package roomtype

import "testing"

func TestCanonicalizeTurkishSeaView(t *testing.T) {
	tbl := DefaultTable()

	got := Canonicalize(tbl, "Standart Oda Deniz Manzaralı")
	if got.Code != "STD-SV" {
		t.Fatalf("code = %q, want STD-SV", got.Code)
	}
	if got.Name != "Standard Sea View" {
		t.Fatalf("name = %q, want Standard Sea View", got.Name)
	}
}

func TestCanonicalizeCategoryOrder(t *testing.T) {
	tbl := DefaultTable()

	// Input deliberately scrambled: view before class before bed.
	got := Canonicalize(tbl, "sea deluxe king balcony")
	if got.Code != "KNG-DLX-SV-BLC" {
		t.Fatalf("code = %q, want KNG-DLX-SV-BLC", got.Code)
	}
}

func TestCanonicalizeEdgeInputs(t *testing.T) {
	tbl := DefaultTable()

	cases := []struct {
		in   string
		code string
		name string
	}{
		{"", "UNK", "Unknown"},
		{"   ", "UNK", "Unknown"},
		{"Mystery Chamber 9000", "ROH", "Mystery Chamber 9000"},
		{"suite", "SUI", "Suite"},
		{"Süit", "SUI", "Suite"},
		{"Deluxe Deluxe Room", "DLX", "Deluxe"}, // duplicate tokens collapse
	}
	for _, c := range cases {
		got := Canonicalize(tbl, c.in)
		if got.Code != c.code || got.Name != c.name {
			t.Errorf("Canonicalize(%q) = %q/%q, want %q/%q", c.in, got.Code, got.Name, c.code, c.name)
		}
	}
}

func TestCanonicalizeStripsPunctuation(t *testing.T) {
	tbl := DefaultTable()

	got := Canonicalize(tbl, "Deluxe, Sea-View (Balcony)")
	if got.Code != "DLX-SV-BLC" {
		t.Fatalf("code = %q, want DLX-SV-BLC", got.Code)
	}
}

func TestPremiumAndGenericCodes(t *testing.T) {
	if !IsPremiumCode("SUI-SV") {
		t.Error("SUI-SV should be premium")
	}
	if !IsPremiumCode("PRS") {
		t.Error("PRS should be premium")
	}
	if IsPremiumCode("STD-SV") {
		t.Error("STD-SV should not be premium")
	}
	if !IsGenericCode("STD") || !IsGenericCode("ECO-CV") {
		t.Error("STD and ECO-CV should be generic")
	}
	if IsGenericCode("DLX") {
		t.Error("DLX should not be generic")
	}
}

func TestSynonymsForBridgesLocales(t *testing.T) {
	tbl := DefaultTable()

	syns := tbl.SynonymsFor("sea")
	found := false
	for _, s := range syns {
		if s == "deniz" {
			found = true
		}
	}
	if !found {
		t.Fatalf("SynonymsFor(sea) = %v, want to include deniz", syns)
	}
	if got := tbl.SynonymsFor("zzz"); got != nil {
		t.Fatalf("SynonymsFor(zzz) = %v, want nil", got)
	}
}
