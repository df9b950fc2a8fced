package types

import "testing"

func TestParseCatalogSource(t *testing.T) {
	cases := []struct {
		in      string
		want    CatalogSource
		wantErr bool
	}{
		{"LEGACY", SourceLegacy, false},
		{"legacy", SourceLegacy, false},
		{" Rpro ", SourceRpro, false},
		{"RPRO", SourceRpro, false},
		{"", "", true},
		{"bogus", "", true},
	}
	for _, tc := range cases {
		got, err := ParseCatalogSource(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseCatalogSource(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseCatalogSource(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseCatalogSource(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCatalogItemConversionKey(t *testing.T) {
	modulo, campo, valor := "VENTAS", "TIPO", "FA"
	sbsNo := 2
	item := &CatalogItem{Modulo: &modulo, Campo: &campo, Valor: &valor, SbsNo: &sbsNo}

	key := item.ConversionKey()
	want := ConversionKey{Modulo: "VENTAS", Campo: "TIPO", Valor: "FA", Cadena: 2}
	if key != want {
		t.Fatalf("ConversionKey() = %+v, want %+v", key, want)
	}

	// Nil fields collapse to zero values instead of panicking.
	empty := (&CatalogItem{}).ConversionKey()
	if empty != (ConversionKey{}) {
		t.Fatalf("expected zero key, got %+v", empty)
	}
}

func TestCadenaDisplay(t *testing.T) {
	cases := []struct {
		cadena int
		want   string
	}{
		{1, "GNC"},
		{2, "Arca"},
		{7, "7"},
	}
	for _, tc := range cases {
		key := ConversionKey{Cadena: tc.cadena}
		if got := key.CadenaDisplay(); got != tc.want {
			t.Fatalf("CadenaDisplay(%d) = %q, want %q", tc.cadena, got, tc.want)
		}
	}

	item := &CatalogItem{}
	if got := item.CadenaDisplay(); got != "" {
		t.Fatalf("expected empty display for nil sbs_no, got %q", got)
	}
}
