package backend

import "testing"

func TestCheckBuffers(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		output  []byte
		wantErr bool
	}{
		{"terminated", []byte("a\x00"), make([]byte, 4), false},
		{"nul only", []byte{0}, make([]byte, 2), false},
		{"empty input", nil, make([]byte, 2), true},
		{"unterminated", []byte("a"), make([]byte, 2), true},
		{"empty output", []byte{0}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkBuffers(tt.input, tt.output)
			if (err != nil) != tt.wantErr {
				t.Fatalf("checkBuffers() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
