package services

import "testing"

func TestLooksTabular(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  bool
	}{
		{
			name:  "prose",
			block: "Aspirin is a common drug.\nIt reduces fever and pain.\nIt is widely available.",
			want:  false,
		},
		{
			name:  "tab separated columns",
			block: "drug\tdose\tfrequency\naspirin\t500mg\tdaily\nibuprofen\t200mg\tdaily",
			want:  true,
		},
		{
			name:  "space aligned columns",
			block: "drug       dose    frequency\naspirin    500mg   daily\nibuprofen  200mg   daily",
			want:  true,
		},
		{
			name:  "too short",
			block: "a\tb\tc\nd\te\tf",
			want:  false,
		},
		{
			name:  "mostly prose with one aligned line",
			block: "Heading text here.\nA normal sentence follows.\ncol1   col2   col3\nAnother plain sentence.\nAnd one more line of prose.",
			want:  false,
		},
	}

	for _, tt := range tests {
		if got := looksTabular(tt.block); got != tt.want {
			t.Errorf("%s: looksTabular = %v, want %v", tt.name, got, tt.want)
		}
	}
}
