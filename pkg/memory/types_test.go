package memory

import "testing"

func TestClampImportance(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"below minimum", -5, MinImportance},
		{"at minimum", 1, 1},
		{"in range", 7, 7},
		{"at maximum", 10, 10},
		{"above maximum", 99, MaxImportance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampImportance(tt.in); got != tt.want {
				t.Errorf("ClampImportance(%d) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestClampIntimacy(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"far below minimum", -1000, MinIntimacy},
		{"at minimum", 0, 0},
		{"baseline", 50, 50},
		{"at maximum", 100, 100},
		{"above maximum", 5000, MaxIntimacy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampIntimacy(tt.in); got != tt.want {
				t.Errorf("ClampIntimacy(%d) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage([]int{1, 2, 3}, 10, 2, 3)
	if p.Page != 2 || p.Limit != 3 || p.Total != 10 {
		t.Errorf("unexpected envelope: %+v", p)
	}
	if p.TotalPages != 4 {
		t.Errorf("TotalPages = %d, want 4", p.TotalPages)
	}
}

func TestNewPageEmpty(t *testing.T) {
	p := NewPage[int](nil, 0, 0, 0)
	if p.Items == nil {
		t.Error("Items should never be nil")
	}
	if p.Page != 1 {
		t.Errorf("Page = %d, want 1", p.Page)
	}
	if p.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1 even for empty results", p.TotalPages)
	}
}

func TestNewPageExactMultiple(t *testing.T) {
	p := NewPage([]string{"a"}, 20, 1, 10)
	if p.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", p.TotalPages)
	}
}
