package flatresult

import (
	"encoding/json"
	"testing"
)

func TestSetKeepsPosition(t *testing.T) {
	r := New()
	r.Set("b", 1)
	r.Set("a", 2)
	r.Set("b", 3)
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Error %+v", err)
	}
	if string(out) != `{"b":3,"a":2}` {
		t.Fatalf("JSON is %s", out)
	}
}

func TestEmptyResult(t *testing.T) {
	out, _ := json.Marshal(New())
	if string(out) != `{}` {
		t.Fatalf("JSON is %s", out)
	}
}
