package capture

import (
	"context"
	"testing"
)

func TestViewURL(t *testing.T) {
	tests := []struct{ base, section, want string }{
		{"http://127.0.0.1:8080", "S01", "http://127.0.0.1:8080/view?section=S01"},
		{"http://127.0.0.1:8080/", "S 1", "http://127.0.0.1:8080/view?section=S+1"},
	}
	for _, tt := range tests {
		if got := ViewURL(tt.base, tt.section); got != tt.want {
			t.Errorf("ViewURL(%q, %q) = %q, want %q", tt.base, tt.section, got, tt.want)
		}
	}
}

func TestGridPNGRequiresURL(t *testing.T) {
	if _, err := GridPNG(context.Background(), Options{}); err == nil {
		t.Fatal("GridPNG() without URL should fail")
	}
}
