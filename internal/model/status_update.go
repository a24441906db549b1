package model

// StatusUpdate is a connection state change reported by the gateway
// webhook. Carried through the status queue to the consumer that
// writes the instance row.
type StatusUpdate struct {
	InstanceName string         `json:"instance_name"`
	Status       InstanceStatus `json:"status"`
}

// NormalizeGatewayState maps the gateway's connection.update states
// onto instance statuses. Unknown states return false and are
// dropped by the caller.
func NormalizeGatewayState(state string) (InstanceStatus, bool) {
	switch state {
	case "open", "connected":
		return InstanceStatusConnected, true
	case "close", "disconnected":
		return InstanceStatusDisconnected, true
	case "connecting":
		return InstanceStatusConnecting, true
	default:
		return "", false
	}
}
