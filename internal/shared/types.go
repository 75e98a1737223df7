package shared

// EnvelopeVersion is the MCP protocol version stamped on every response.
const EnvelopeVersion = "mcp.v1"

type Envelope struct {
	Version string `json:"version"`
	Status  string `json:"status"`
	Data    any    `json:"data"`
}

func Success(data any) Envelope {
	return Envelope{
		Version: EnvelopeVersion,
		Status:  "success",
		Data:    data,
	}
}
