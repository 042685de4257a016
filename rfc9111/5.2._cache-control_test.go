package rfc9111

import (
	"testing"
	"time"
)

func TestMaxAge(t *testing.T) {
	cc := ParseCacheControl([]string{"max-age=60"})
	val, ok := cc.Get("max-age")
	if !ok {
		t.Fatal("Could not get directive")
	}
	if val != "60" {
		t.Fatalf("Value is %s", val)
	}
	if d, ok := cc.MaxAge(); !ok || d != time.Minute {
		t.Fatalf("MaxAge is %v, %v", d, ok)
	}
}

func TestReal(t *testing.T) {
	cc := ParseCacheControl([]string{"public, max-age=0, s-maxage=600"})
	if val, ok := cc.Get("public"); !ok || val != "" {
		t.Fatalf("val: '%s', ok: %v", val, ok)
	}
	if val, ok := cc.Get("max-age"); !ok || val != "0" {
		t.Fatalf("val: '%s', ok: %v", val, ok)
	}
	if val, ok := cc.Get("s-maxage"); !ok || val != "600" {
		t.Fatalf("val: '%s', ok: %v", val, ok)
	}
}

func TestCaseAndSpacing(t *testing.T) {
	cc := ParseCacheControl([]string{"Private,No-Cache=\"set-cookie, x-foo\"", " MAX-AGE = 5 "})
	if !cc.HasDirective("private") {
		t.Fatal("private should be present")
	}
	if val, _ := cc.Get("no-cache"); val != "set-cookie, x-foo" {
		t.Fatalf("no-cache is '%s'", val)
	}
	if d, ok := cc.MaxAge(); !ok || d != 5*time.Second {
		t.Fatalf("MaxAge is %v, %v", d, ok)
	}
	if got := cc.Directives(); len(got) != 3 || got[0] != "private" || got[2] != "max-age" {
		t.Fatalf("Directives are %v", got)
	}
}

func TestFirstDirectiveWins(t *testing.T) {
	cc := ParseCacheControl([]string{"max-age=10, max-age=20"})
	if d, _ := cc.MaxAge(); d != 10*time.Second {
		t.Fatalf("MaxAge is %v", d)
	}
}

func TestInvalidMaxAge(t *testing.T) {
	cc := ParseCacheControl([]string{"max-age=abc"})
	if _, ok := cc.MaxAge(); ok {
		t.Fatal("Invalid max-age should not be reported")
	}
	if !cc.HasDirective("max-age") {
		t.Fatal("Directive should still be present")
	}
}
