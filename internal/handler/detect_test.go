package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectProduct(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
		ok      bool
	}{
		{
			name:    "price pattern",
			message: "¿Precio de ibuprofeno 400 mg?",
			want:    "ibuprofeno 400 mg",
			ok:      true,
		},
		{
			name:    "availability pattern",
			message: "tienes losartan 50mg",
			want:    "losartan 50mg",
			ok:      true,
		},
		{
			name:    "filler article stripped",
			message: "necesito el omeprazol 20 mg",
			want:    "omeprazol 20 mg",
			ok:      true,
		},
		{
			name:    "bare drug keyword",
			message: "hola, paracetamol 500 mg",
			want:    "paracetamol 500 mg",
			ok:      true,
		},
		{
			name:    "drug keyword must be whole word",
			message: "mi perro se llama Aspirinator",
			ok:      false,
		},
		{
			name:    "greeting",
			message: "hola buenos dias",
			ok:      false,
		},
		{
			name:    "empty",
			message: "  ",
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectProduct(tt.message)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
