package enrich

import (
	"path/filepath"
	"testing"
)

func openTestCache(t *testing.T) *SQLiteCache {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenCache returned unexpected error: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCache_LookupMiss(t *testing.T) {
	cache := openTestCache(t)

	_, ok, err := cache.Lookup("nobody@example.com")
	if err != nil {
		t.Fatalf("Lookup returned unexpected error: %v", err)
	}
	if ok {
		t.Error("Lookup on an empty cache reported a hit")
	}
}

func TestCache_StoreAndLookup(t *testing.T) {
	cache := openTestCache(t)

	in := &Enrichment{
		FirstName:   "Sam",
		LastName:    "Altman",
		FullName:    "Sam Altman",
		CompanyName: "OpenAI",
		Website:     "https://openai.com/",
	}
	if err := cache.Store("sam.altman@openai.com", in); err != nil {
		t.Fatalf("Store returned unexpected error: %v", err)
	}

	out, ok, err := cache.Lookup("sam.altman@openai.com")
	if err != nil {
		t.Fatalf("Lookup returned unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("Lookup missed a stored entry")
	}
	if *out != *in {
		t.Errorf("Lookup = %+v, want %+v", out, in)
	}
}

func TestCache_StoreReplaces(t *testing.T) {
	cache := openTestCache(t)

	if err := cache.Store("a@x.com", &Enrichment{CompanyName: "Old"}); err != nil {
		t.Fatal(err)
	}
	if err := cache.Store("a@x.com", &Enrichment{CompanyName: "New"}); err != nil {
		t.Fatal(err)
	}

	out, ok, err := cache.Lookup("a@x.com")
	if err != nil || !ok {
		t.Fatalf("Lookup = %v, %v", ok, err)
	}
	if out.CompanyName != "New" {
		t.Errorf("CompanyName = %q, want New", out.CompanyName)
	}
}
