package cmd

import (
	"testing"

	cfgpkg "github.com/KaramelBytes/mixclust/internal/config"
	"github.com/KaramelBytes/mixclust/internal/table"
)

func TestInputFlagsOptions(t *testing.T) {
	in := inputFlags{delimiter: "tab", decimal: "comma", thousands: "space", maxRows: 50,
		kinds: []string{"zip=categorical", " score = numeric"}}
	opt, err := in.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opt.Delimiter != '\t' || opt.Number.DecimalSeparator != ',' || opt.Number.ThousandsSeparator != ' ' {
		t.Fatalf("separators not mapped: %+v", opt)
	}
	if opt.MaxRows != 50 {
		t.Fatalf("max rows = %d", opt.MaxRows)
	}
	if opt.Kinds["zip"] != table.Categorical || opt.Kinds["score"] != table.Numeric {
		t.Fatalf("kinds = %v", opt.Kinds)
	}

	for _, bad := range []inputFlags{
		{decimal: "x"},
		{thousands: "_"},
		{kinds: []string{"zip"}},
		{kinds: []string{"zip=date"}},
	} {
		if _, err := bad.options(); err == nil {
			t.Fatalf("expected error for %+v", bad)
		}
	}
}

func TestUniquePathAndFormatExt(t *testing.T) {
	dir := t.TempDir()
	p := dir + "/a.json"
	if got := uniquePath(p); got != p {
		t.Fatalf("free path changed: %s", got)
	}
	if got := formatExt("md"); got != "md" {
		t.Fatalf("formatExt(md) = %s", got)
	}
	if got := formatExt("yaml"); got != "yaml" {
		t.Fatalf("formatExt(yaml) = %s", got)
	}
}

func TestInputFlagsDefaultMaxRows(t *testing.T) {
	old := cfg
	cfg = nil
	defer func() { cfg = old }()
	opt, err := (&inputFlags{}).options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opt.MaxRows != 5000 || cfgpkg.DefaultMaxRows != 5000 {
		t.Fatalf("max rows = %d, want %d", opt.MaxRows, cfgpkg.DefaultMaxRows)
	}
}
