package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash8(t *testing.T) {
	h := Hash8("a@x.com")
	assert.Len(t, h, 16)
	assert.Equal(t, h, Hash8("a@x.com"))
	assert.NotEqual(t, h, Hash8("b@x.com"))
}

func TestInviteCode(t *testing.T) {
	a, b := InviteCode(), InviteCode()
	assert.Len(t, a, InviteCodeLen)
	assert.NotEqual(t, a, b)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "john@example.com", NormalizeEmail("  John@Example.COM "))
}
