package cmd

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/bnema/agent-network/internal/application"
	"github.com/bnema/agent-network/internal/domain"
)

type errorOutput struct {
	Error   string           `json:"error"`
	Kind    domain.ErrorKind `json:"kind"`
	YourID  domain.AgentID   `json:"your_id,omitempty"`
	Network domain.NetworkID `json:"network,omitempty"`
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func writeError(w io.Writer, err error) error {
	out := errorOutput{Error: err.Error(), Kind: domain.KindOf(err)}

	var opErr *application.OperationError
	if errors.As(err, &opErr) {
		out.YourID = opErr.Envelope.YourID
		out.Network = opErr.Envelope.Network
	}

	return writeJSON(w, out)
}
