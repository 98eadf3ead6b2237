package minio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	name := ObjectName("SHIP/Class & Flag Cert/Certificates", "C:\\scans\\iopp.pdf")
	parts := strings.Split(name, "/")
	require.Len(t, parts, 5)
	assert.Equal(t, "iopp.pdf", parts[4])
	assert.Len(t, parts[3], 36)

	assert.NotEqual(t, name, ObjectName("SHIP/Class & Flag Cert/Certificates", "iopp.pdf"))
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(Config{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s", Bucket: "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", c.bucket)
	assert.Positive(t, c.expiry)
}
