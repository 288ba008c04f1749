package payments

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStkPassword(t *testing.T) {
	client := NewMpesaClient(MpesaConfig{Shortcode: "174379", Passkey: "secretkey"})

	password := client.stkPassword("20260115103045")

	decoded, err := base64.StdEncoding.DecodeString(password)
	assert.NoError(t, err)
	assert.Equal(t, "174379secretkey20260115103045", string(decoded))
}
