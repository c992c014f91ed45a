package handlers

import (
	"reflect"
	"testing"
	"time"
)

func TestParseList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "single", raw: "Assigned", want: []string{"Assigned"}},
		{name: "comma separated", raw: "Assigned,Closed", want: []string{"Assigned", "Closed"}},
		{name: "whitespace trimmed", raw: " Assigned , Closed ", want: []string{"Assigned", "Closed"}},
		{name: "blank entries dropped", raw: "Assigned,,Closed,", want: []string{"Assigned", "Closed"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseList(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseList(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	role, ok, err := parseRole("")
	if err != nil || ok {
		t.Errorf("empty role: role=%d ok=%v err=%v, want absent", role, ok, err)
	}

	role, ok, err = parseRole("2")
	if err != nil || !ok || role != 2 {
		t.Errorf("parseRole(2) = %d/%v/%v", role, ok, err)
	}

	if _, _, err := parseRole("manager"); err == nil {
		t.Error("non-numeric role accepted")
	}
}

func TestParseTimeQuery(t *testing.T) {
	t.Parallel()

	if got := parseTimeQuery(""); got != nil {
		t.Errorf("empty value = %v, want nil", got)
	}
	if got := parseTimeQuery("garbage"); got != nil {
		t.Errorf("garbage value = %v, want nil", got)
	}

	rfc := parseTimeQuery("2025-03-01T10:00:00Z")
	if rfc == nil || !rfc.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("RFC3339 = %v", rfc)
	}

	// The feed layout carries the source offset of +05:30.
	source := parseTimeQuery("2025-03-01 10:00:00")
	if source == nil {
		t.Fatal("feed layout not accepted")
	}
	if got := source.UTC().Hour(); got != 4 {
		t.Errorf("feed layout UTC hour = %d, want 4", got)
	}
}

func TestParseInt(t *testing.T) {
	t.Parallel()

	if got := parseInt("", 7); got != 7 {
		t.Errorf("default = %d, want 7", got)
	}
	if got := parseInt("3", 7); got != 3 {
		t.Errorf("parsed = %d, want 3", got)
	}
	if got := parseInt("-1", 7); got != 7 {
		t.Errorf("negative = %d, want default 7", got)
	}
	if got := parseInt("abc", 7); got != 7 {
		t.Errorf("garbage = %d, want default 7", got)
	}
}
