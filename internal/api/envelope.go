package api

import (
	"fmt"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mediashelf/mediashelf-server/internal/http/response"
)

// EnvelopeVersion is the response envelope version.
const EnvelopeVersion = response.Version

// APIEnvelope wraps successful responses and simple errors.
type APIEnvelope = response.Envelope //nolint:revive // API prefix is intentional for clarity

// APIErrorEnvelope wraps errors that carry a machine-readable code.
type APIErrorEnvelope = response.ErrorEnvelope //nolint:revive // API prefix is intentional for clarity

// EnvelopeTransformer wraps every huma response body in the versioned envelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, _ := strconv.Atoi(status)

	switch body := v.(type) {
	case *APIError:
		if body.Code != "" {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Success: false,
				Error:   body.Message,
				Code:    body.Code,
				Message: body.Message,
				Details: body.Details,
			}, nil
		}
		return APIEnvelope{Version: EnvelopeVersion, Success: false, Error: body.Message}, nil
	case error:
		return APIEnvelope{Version: EnvelopeVersion, Success: false, Error: body.Error()}, nil
	}

	if code >= 400 {
		msg := ""
		if v != nil {
			msg = fmt.Sprint(v)
		}
		return APIEnvelope{Version: EnvelopeVersion, Success: false, Error: msg}, nil
	}

	return APIEnvelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
}
