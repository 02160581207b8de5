// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_IsSortableV7(t *testing.T) {
	first := New()
	second := New()

	assert.True(t, Valid(first))
	assert.NotEqual(t, first, second)
	assert.Equal(t, byte('7'), first[14])
}

func TestValid(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"0193a5c4-1111-7000-8000-000000000001", true},
		{"0193A5C4-1111-7000-8000-000000000001", true},
		{"f47ac10b-58cc-4372-a567-0e02b2c3d479", true},
		{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
		{"0193a5c4111170008000000000000001", false},
		{"{0193a5c4-1111-7000-8000-000000000001}", false},
		{"urn:uuid:0193a5c4-1111-7000-8000-000000000001", false},
		{"42", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.input))
		})
	}
}
