package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignKnownVector(t *testing.T) {
	// RFC 4231 test case 2
	assert.Equal(t,
		"5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843",
		Sign("what do ya want for nothing?", "Jefe"))
}

func TestVerifySignature(t *testing.T) {
	sig := Sign("amount=16&orderId=TML1", "secret")

	assert.True(t, VerifySignature("amount=16&orderId=TML1", sig, "secret"))
	assert.False(t, VerifySignature("amount=17&orderId=TML1", sig, "secret"))
	assert.False(t, VerifySignature("amount=16&orderId=TML1", sig, "other"))
	assert.False(t, VerifySignature("amount=16&orderId=TML1", "", "secret"))
	assert.False(t, VerifySignature("amount=16&orderId=TML1", sig, ""))
}
