package client

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUnwrapListShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []int
	}{
		{"bare array", `[1,2,3]`, []int{1, 2, 3}},
		{"data wrapper", `{"data":[1,2,3]}`, []int{1, 2, 3}},
		{"double data wrapper", `{"data":{"data":[1,2,3]}}`, []int{1, 2, 3}},
		{"wrapper with siblings", `{"data":[1,2,3],"total":3}`, []int{1, 2, 3}},
		{"empty object", `{}`, []int{}},
		{"null", `null`, []int{}},
		{"absent", ``, []int{}},
		{"scalar", `42`, []int{}},
		{"data is object without list", `{"data":{"rows":[1]}}`, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeList[int](json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("DecodeList(%s) failed: %v", tt.raw, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeList(%s) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestDecodeListNeverNil(t *testing.T) {
	got, err := DecodeList[string](json.RawMessage(`{"data":null}`))
	if err != nil {
		t.Fatalf("DecodeList failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected empty non-nil slice")
	}
}

func TestNewEnvelopePeelsDataKey(t *testing.T) {
	env, err := newEnvelope([]byte(`{"data":[{"id":1}],"message":"ok"}`))
	if err != nil {
		t.Fatalf("newEnvelope failed: %v", err)
	}
	if string(env.Data) != `[{"id":1}]` {
		t.Errorf("expected inner payload, got %s", env.Data)
	}
	if !env.Success {
		t.Error("expected success envelope")
	}

	env, err = newEnvelope([]byte(`[1,2]`))
	if err != nil {
		t.Fatalf("newEnvelope failed: %v", err)
	}
	if string(env.Data) != `[1,2]` {
		t.Errorf("expected array payload as-is, got %s", env.Data)
	}

	if _, err := newEnvelope([]byte(`<html>`)); err == nil {
		t.Error("expected error for non-JSON body")
	}
}

func TestDecodeObjectPeelsLoneWrapper(t *testing.T) {
	type user struct {
		ID    int    `json:"id"`
		Email string `json:"email"`
	}

	got, err := DecodeObject[user](json.RawMessage(`{"data":{"id":7,"email":"a@b.c"}}`))
	if err != nil {
		t.Fatalf("DecodeObject failed: %v", err)
	}
	if got.ID != 7 || got.Email != "a@b.c" {
		t.Errorf("unexpected object: %+v", got)
	}

	got, err = DecodeObject[user](json.RawMessage(`{"id":8,"email":"x@y.z"}`))
	if err != nil {
		t.Fatalf("DecodeObject failed: %v", err)
	}
	if got.ID != 8 {
		t.Errorf("expected id 8, got %d", got.ID)
	}
}

func TestWithQuery(t *testing.T) {
	got := withQuery("/api/reports/compliance", map[string]string{"to": "2026-02-01", "from": "2026-01-01", "dept": ""})
	want := "/api/reports/compliance?from=2026-01-01&to=2026-02-01"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	if got := withQuery("/x?a=1", map[string]string{"b": "2"}); got != "/x?a=1&b=2" {
		t.Errorf("unexpected query join: %s", got)
	}
}
