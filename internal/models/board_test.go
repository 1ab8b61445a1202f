package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/tavla/internal/apperr"
)

func TestValidateID(t *testing.T) {
	valid := []string{"vacation2026", "Work", "a", "B2", "sprint42"}
	for _, id := range valid {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v, want nil", id, err)
		}
	}

	invalid := []string{
		"",
		"my board",
		"my-board",
		"my_board",
		"board/1",
		"../../etc/passwd",
		"board.json",
		"böard",
		TemplateID,
	}
	for _, id := range invalid {
		err := ValidateID(id)
		if err == nil {
			t.Errorf("ValidateID(%q) = nil, want error", id)
			continue
		}
		if !errors.Is(err, apperr.ErrInvalidID) {
			t.Errorf("ValidateID(%q) = %v, want ErrInvalidID", id, err)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("summer_trip"); got != "summer trip" {
		t.Errorf("DisplayName = %q", got)
	}
	if got := DisplayName("vacation2026"); got != "vacation2026" {
		t.Errorf("DisplayName = %q", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := &Board{
		Name: "Trip",
		Columns: map[string]Column{
			"backlog": {Name: "Backlog", Tasks: []string{"flights", "hotel"}},
		},
	}
	clone := orig.Clone()

	col := clone.Columns["backlog"]
	col.Tasks[0] = "changed"
	col.Tasks = append(col.Tasks, "extra")
	clone.Columns["backlog"] = col
	clone.Columns["new"] = Column{Name: "New"}

	if orig.Columns["backlog"].Tasks[0] != "flights" {
		t.Error("clone mutation leaked into original task slice")
	}
	if len(orig.Columns["backlog"].Tasks) != 2 {
		t.Errorf("original tasks len = %d, want 2", len(orig.Columns["backlog"].Tasks))
	}
	if _, ok := orig.Columns["new"]; ok {
		t.Error("clone mutation leaked into original columns map")
	}
}

func TestSortedColumnKeys(t *testing.T) {
	b := &Board{Columns: map[string]Column{
		"2026-09-02": {},
		"2026-09-01": {},
		"backlog":    {},
	}}
	keys := b.SortedColumnKeys()
	want := []string{"2026-09-01", "2026-09-02", "backlog"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestRenderTasksDropsBlanksAndDuplicates(t *testing.T) {
	col := Column{Tasks: []string{"pack bags", "", "  ", "pack bags", "buy map", "pack bags"}}
	got := col.RenderTasks()
	want := []string{"pack bags", "buy map"}
	if len(got) != len(want) {
		t.Fatalf("RenderTasks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("RenderTasks[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	// Stored array is untouched.
	if len(col.Tasks) != 6 {
		t.Errorf("stored tasks mutated: %v", col.Tasks)
	}
}

func TestNormalizeDedupesStoredArrays(t *testing.T) {
	b := &Board{Columns: map[string]Column{
		"c": {Tasks: []string{"x", "x", "", "y"}},
	}}
	b.Normalize()
	got := b.Columns["c"].Tasks
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("Normalize = %v", got)
	}
}

func TestDecodeBoardCorrupt(t *testing.T) {
	_, err := DecodeBoard([]byte("{not json"))
	if !errors.Is(err, apperr.ErrCorrupt) {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
}

func TestDecodeBoardNilColumns(t *testing.T) {
	b, err := DecodeBoard([]byte(`{"name":"Empty"}`))
	if err != nil {
		t.Fatalf("DecodeBoard: %v", err)
	}
	if b.Columns == nil {
		t.Error("Columns should be initialized to an empty map")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	b := &Board{
		Name: "Round",
		Columns: map[string]Column{
			"todo": {Name: "Todo", Tasks: []string{"a", "b"}},
		},
	}
	data, err := EncodeBoard(b)
	if err != nil {
		t.Fatalf("EncodeBoard: %v", err)
	}
	if data[len(data)-1] != '\n' {
		t.Error("encoded board should end with a newline")
	}
	got, err := DecodeBoard(data)
	if err != nil {
		t.Fatalf("DecodeBoard: %v", err)
	}
	if got.Name != "Round" || got.Columns["todo"].Tasks[1] != "b" {
		t.Errorf("round trip = %+v", got)
	}
}

func TestSearchBody(t *testing.T) {
	b := &Board{
		Name: "Trip",
		Columns: map[string]Column{
			"backlog": {Name: "Backlog", Tasks: []string{"book flights"}},
		},
	}
	body := b.SearchBody()
	for _, want := range []string{"Trip", "Backlog", "book flights"} {
		if !strings.Contains(body, want) {
			t.Errorf("SearchBody missing %q: %q", want, body)
		}
	}
}

func TestDecodeTemplate(t *testing.T) {
	data := []byte(`{"activeBoard":"proto","boards":{"proto":{"name":"P","columns":{}}}}`)
	tmpl, err := DecodeTemplate(data)
	if err != nil {
		t.Fatalf("DecodeTemplate: %v", err)
	}
	if tmpl.ActiveBoard != "proto" {
		t.Errorf("activeBoard = %q", tmpl.ActiveBoard)
	}
	if _, err := DecodeTemplate([]byte("nope")); !errors.Is(err, apperr.ErrTemplateMissing) {
		t.Errorf("corrupt template err = %v, want ErrTemplateMissing", err)
	}
}
