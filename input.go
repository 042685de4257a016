package warmup

import (
	"encoding/json"
	"io"
	"net/http"

	reqheaders "github.com/edge-optimizer/warmup-engine/pkg/request-headers"
)

// DefaultRequestNumber is reported when the caller sent no request number.
const DefaultRequestNumber = "None"

// maxBodyBytes bounds the inbound event; events are a few hundred bytes.
const maxBodyBytes = 1 << 20

// WarmupRequest is one parsed invocation.
type WarmupRequest struct {
	TargetURL string
	Token     string
	// Headers are normalized and ready to send.
	Headers map[string]string
	// RequestNumber is a string or a float64.
	RequestNumber  interface{}
	RequestUUID    *string
	RequestRoundID *float64
	URLType        *string
}

// Accepted field names; later names are the ones used by older orchestrators.
var (
	targetURLFields      = []string{"targetUrl"}
	tokenFields          = []string{"token", "tokenCalculatedByN8n"}
	headersFields        = []string{"headers", "headersForTargetUrl"}
	requestNumberFields  = []string{"requestNumber", "httpRequestNumber"}
	requestUUIDFields    = []string{"requestUUID", "httpRequestUUID"}
	requestRoundIDFields = []string{"requestRoundId", "httpRequestRoundID"}
	urlTypeFields        = []string{"urltype"}
)

// parseInput reads the event from the JSON body, falling back to the
// query string for GET requests whose body yields nothing.
func parseInput(r *http.Request, markerValue string) (WarmupRequest, *Failure) {
	var raw interface{}
	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err == nil && len(body) > 0 {
			var decoded interface{}
			// a body that is not JSON is treated like no body
			if json.Unmarshal(body, &decoded) == nil && truthy(decoded) {
				if list, ok := decoded.([]interface{}); ok {
					if len(list) == 0 {
						return WarmupRequest{}, emptyEventList()
					}
					decoded = list[0]
				}
				if obj, ok := decoded.(map[string]interface{}); ok {
					if data, ok := obj["data"]; ok {
						decoded = data
					}
				}
				raw = decoded
			}
		}
	}

	if !truthy(raw) && r.Method == http.MethodGet {
		q := r.URL.Query()
		fromQuery := map[string]interface{}{
			"headers": reqheaders.FromHTTP(r.Header),
		}
		for _, names := range [][]string{targetURLFields, tokenFields, requestNumberFields} {
			for _, name := range names {
				if q.Has(name) {
					fromQuery[name] = q.Get(name)
				}
			}
		}
		raw = fromQuery
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return WarmupRequest{}, invalidEventType()
	}

	req := WarmupRequest{
		TargetURL:     stringField(obj, targetURLFields),
		Token:         stringField(obj, tokenFields),
		Headers:       reqheaders.Normalize(field(obj, headersFields), markerValue),
		RequestNumber: DefaultRequestNumber,
	}
	switch n := field(obj, requestNumberFields).(type) {
	case string, float64:
		req.RequestNumber = n
	}
	if s, ok := field(obj, requestUUIDFields).(string); ok {
		req.RequestUUID = &s
	}
	if f, ok := field(obj, requestRoundIDFields).(float64); ok {
		req.RequestRoundID = &f
	}
	if s, ok := field(obj, urlTypeFields).(string); ok {
		req.URLType = &s
	}
	return req, nil
}

// field returns the value of the first name present and non-null.
func field(obj map[string]interface{}, names []string) interface{} {
	for _, name := range names {
		if v, ok := obj[name]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringField(obj map[string]interface{}, names []string) string {
	s, _ := field(obj, names).(string)
	return s
}

// truthy reports whether v counts as an event at all;
// null, false, 0 and "" do not.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	}
	return true
}
