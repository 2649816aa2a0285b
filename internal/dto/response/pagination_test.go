package response

import (
	"encoding/json"
	"testing"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		perPage   int
		total     int64
		wantPages int
		wantNext  bool
	}{
		{"empty", 1, 10, 0, 0, false},
		{"partial last page", 1, 10, 25, 3, true},
		{"on last page", 3, 10, 25, 3, false},
		{"past the end", 9, 10, 25, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage[int](nil, tt.page, tt.perPage, tt.total)
			if p.Pagination.TotalPages != tt.wantPages || p.Pagination.HasNext != tt.wantNext {
				t.Fatalf("expected %d pages next=%v, got %+v", tt.wantPages, tt.wantNext, p.Pagination)
			}
		})
	}

	raw, err := json.Marshal(NewPage[int](nil, 1, 10, 0))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body map[string]json.RawMessage
	_ = json.Unmarshal(raw, &body)
	if string(body["data"]) != "[]" {
		t.Fatalf("expected empty array, got %s", body["data"])
	}
}
