package judge

import (
	"errors"
	"testing"
)

func TestLanguageID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		language string
		want     int
		wantErr  bool
	}{
		{name: "c++", language: "c++", want: 54},
		{name: "cpp alias", language: "cpp", want: 54},
		{name: "java", language: "java", want: 62},
		{name: "javascript", language: "javascript", want: 63},
		{name: "case insensitive", language: "Java", want: 62},
		{name: "surrounding whitespace", language: " c++ ", want: 54},
		{name: "unknown", language: "cobol", wantErr: true},
		{name: "empty", language: "", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := LanguageID(tt.language)
			if tt.wantErr {
				var confErr *ConfigurationError
				if !errors.As(err, &confErr) {
					t.Fatalf("expected ConfigurationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
