package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func loginPayload(n int) []byte {
	p := make([]byte, n)
	copy(p, loginSignature)
	for i := len(loginSignature); i < n; i++ {
		p[i] = byte(i)
	}
	return p
}

// embeddedPayload builds a frame whose sub-packets are an unrelated one
// followed by a Notify carrying the service id.
func embeddedPayload() []byte {
	p := []byte{0, 0, 0, 0, 0, 0x06, 0, 0, 0, 0}
	p = append(p, 0, 0, 0, 8, 0xDE, 0xAD, 0xBE, 0xEF)
	p = append(p, 0, 0, 0, 15, 0x00, 0x02, 0, 0, 0)
	return append(p, serverSignature...)
}

func TestDetect_Login(t *testing.T) {
	assert.True(t, Detect(loginPayload(98)))
	assert.False(t, Detect(loginPayload(97)))
	assert.False(t, Detect(loginPayload(99)))

	p := loginPayload(98)
	p[11] = 0xAA // outside the compared ranges
	assert.True(t, Detect(p))

	p = loginPayload(98)
	p[15] ^= 0xFF
	assert.False(t, Detect(p))
}

func TestDetect_Embedded(t *testing.T) {
	assert.True(t, Detect(embeddedPayload()))

	p := embeddedPayload()
	p[len(p)-2] = 0x43
	assert.False(t, Detect(p))

	// A sub-packet length below four ends the walk.
	p = []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2}
	p = append(p, embeddedPayload()[10:]...)
	assert.False(t, Detect(p))

	// A length running past the payload ends the walk.
	p = embeddedPayload()
	p[13] = 200
	assert.False(t, Detect(p))
}

func TestPrefilter(t *testing.T) {
	payload := func(n int) []byte { return make([]byte, n) }

	assert.False(t, Prefilter(payload(9), 5000, 6000))
	assert.True(t, Prefilter(payload(10), 5000, 6000))
	assert.True(t, Prefilter(payload(1999), 5000, 6000))
	assert.False(t, Prefilter(payload(2000), 5000, 6000))

	p := payload(20)
	p[4] = 1
	assert.False(t, Prefilter(p, 5000, 6000))

	assert.False(t, Prefilter(payload(1400), 443, 6000))
	assert.False(t, Prefilter(payload(1400), 6000, 443))
	assert.True(t, Prefilter(payload(1399), 443, 6000))
	assert.True(t, Prefilter(payload(1400), 8443, 6000))
}
