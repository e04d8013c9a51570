package optional

import (
	"encoding/json"
	"testing"
)

func TestValue_ZeroIsNone(t *testing.T) {
	var v Value[string]
	if v.IsPresent() {
		t.Error("zero value should be absent")
	}
	if got := v.OrElse("fallback"); got != "fallback" {
		t.Errorf("OrElse = %q", got)
	}
	if v.Ptr() != nil {
		t.Error("Ptr of None should be nil")
	}
}

func TestValue_Some(t *testing.T) {
	v := Some("filled.count.soap")
	got, ok := v.Get()
	if !ok || got != "filled.count.soap" {
		t.Errorf("Get() = %q, %v", got, ok)
	}
	if p := v.Ptr(); p == nil || *p != got {
		t.Errorf("Ptr() = %v", p)
	}
}

func TestFromPointer(t *testing.T) {
	n := 3
	if got := FromPointer(&n).OrElse(0); got != 3 {
		t.Errorf("FromPointer(&3) = %d", got)
	}
	if FromPointer[int](nil).IsPresent() {
		t.Error("FromPointer(nil) should be absent")
	}
}

func TestValue_JSON(t *testing.T) {
	type payload struct {
		Words Value[string] `json:"what3words"`
		Count Value[int]    `json:"count"`
	}

	data, err := json.Marshal(payload{Words: Some("index.home.raft")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"what3words":"index.home.raft","count":null}`; string(data) != want {
		t.Errorf("marshal = %s, want %s", data, want)
	}

	var decoded payload
	if err := json.Unmarshal([]byte(`{"what3words":null,"count":7}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Words.IsPresent() {
		t.Error("null should decode to None")
	}
	if got, ok := decoded.Count.Get(); !ok || got != 7 {
		t.Errorf("count = %d, %v", got, ok)
	}
}
