package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMessageID_TopLevelKey(t *testing.T) {
	raw := []byte(`{"key": {"id": "MSG123", "remoteJid": "5511@s.whatsapp.net", "fromMe": true}}`)
	assert.Equal(t, "MSG123", ExtractMessageID(raw))
}

func TestExtractMessageID_NestedDataKey(t *testing.T) {
	raw := []byte(`{"status": "PENDING", "data": {"key": {"id": "MSG456"}}}`)
	assert.Equal(t, "MSG456", ExtractMessageID(raw))
}

func TestExtractMessageID_TopLevelWinsOverNested(t *testing.T) {
	raw := []byte(`{"key": {"id": "TOP"}, "data": {"key": {"id": "NESTED"}}}`)
	assert.Equal(t, "TOP", ExtractMessageID(raw))
}

func TestExtractMessageID_NoKnownShape(t *testing.T) {
	for _, raw := range []string{`{}`, `{"status":"ok"}`, `{"key":{}}`, `{"data":{}}`, `null`} {
		assert.Empty(t, ExtractMessageID([]byte(raw)), "input: %s", raw)
	}
}

func TestExtractMessageID_MalformedJSON(t *testing.T) {
	assert.Empty(t, ExtractMessageID([]byte(`{"key": `)))
	assert.Empty(t, ExtractMessageID(nil))
}
