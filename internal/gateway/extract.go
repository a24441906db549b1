package gateway

import "encoding/json"

// The gateway is not consistent about where it puts the assigned
// message id: depending on version the send response carries it at
// the top level or nested under "data". Each strategy probes one
// shape; the first hit wins, and no shape at all is fine (the id is
// stored as null).
type extractStrategy func(raw []byte) (string, bool)

var messageIDStrategies = []extractStrategy{
	extractTopLevelKey,
	extractNestedDataKey,
}

// ExtractMessageID pulls the gateway-assigned message id out of a raw
// send response. Returns empty string when no known shape matches;
// never errors.
func ExtractMessageID(raw []byte) string {
	for _, strategy := range messageIDStrategies {
		if id, ok := strategy(raw); ok {
			return id
		}
	}
	return ""
}

// {"key": {"id": "..."}}
func extractTopLevelKey(raw []byte) (string, bool) {
	var resp struct {
		Key struct {
			ID string `json:"id"`
		} `json:"key"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", false
	}
	if resp.Key.ID == "" {
		return "", false
	}
	return resp.Key.ID, true
}

// {"data": {"key": {"id": "..."}}}
func extractNestedDataKey(raw []byte) (string, bool) {
	var resp struct {
		Data struct {
			Key struct {
				ID string `json:"id"`
			} `json:"key"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", false
	}
	if resp.Data.Key.ID == "" {
		return "", false
	}
	return resp.Data.Key.ID, true
}
