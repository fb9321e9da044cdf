package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorizeCard(t *testing.T) {
	cases := []struct {
		number string
		want   bool
	}{
		{"4111111111111111", true},
		{"4111-1111-1111-1111", true},
		{"5555 5555 5555 4444", true},
		{"378282246310005", true},
		{"4111111111111112", false},
		{"41111111111", false},
		{"4111a11111111111", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, authorizeCard(tc.number), tc.number)
	}
}
