package requestparser

import (
	"strings"
	"testing"
)

var testHash = strings.Repeat("0", 63) + "a"

func TestParseHome(t *testing.T) {
	r, err := Parse("/", nil)
	if err != nil || r.Kind != KindHome {
		t.Fatalf("expected home, got %+v err=%v", r, err)
	}
}

func TestParseShortHeight(t *testing.T) {
	r, err := Parse("/h/100", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Kind != KindSearchHeight || r.Height != 100 {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestParseBlockAliasMarksRedirect(t *testing.T) {
	r, err := Parse("/block/"+testHash, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.RedirectCanonical || r.Kind != KindBlock {
		t.Fatalf("expected canonical redirect for alias path, got %+v", r)
	}
}

func TestParseSearchDefaultsToTx(t *testing.T) {
	r, err := Parse("", map[string]string{"s": testHash})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Kind != KindSearchTx {
		t.Fatalf("expected search to default to tx, got kind %v", r.Kind)
	}
}

func TestParseTxOutRedirectPath(t *testing.T) {
	r, err := Parse("/o/"+testHash+"/3", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Kind != KindTxOut || r.VOut != 3 {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestParseUnrecognizedPathIsBadRequest(t *testing.T) {
	if _, err := Parse("/nonsense", nil); err == nil {
		t.Fatalf("expected error for unrecognized path")
	}
}
