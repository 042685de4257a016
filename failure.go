package warmup

import (
	"fmt"
	"net/http"
)

// Reason classifies why an invocation did not produce a success result.
type Reason string

const (
	ReasonEmptyEventList   Reason = "empty_event_list"
	ReasonInvalidEventType Reason = "invalid_event_type"
	ReasonMissingURL       Reason = "missing_url"
	ReasonMissingSecret    Reason = "missing_secret"
	ReasonMissingToken     Reason = "missing_token"
	ReasonInvalidToken     Reason = "invalid_token"
	ReasonRequestException Reason = "request_exception"
)

// StatusRequestException is returned when the outbound fetch fails.
// It is outside the registered range so callers can tell it apart from
// anything an origin might send.
const StatusRequestException = 599

// Failure is an error that ends an invocation on the error path.
type Failure struct {
	Status  int
	Reason  Reason
	Message string
	Detail  string
}

func (f *Failure) Error() string {
	if f.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", f.Reason, f.Message, f.Detail)
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Message)
}

func emptyEventList() *Failure {
	return &Failure{http.StatusBadRequest, ReasonEmptyEventList, "Event list is empty.", ""}
}

func invalidEventType() *Failure {
	return &Failure{http.StatusBadRequest, ReasonInvalidEventType, "Request is neither a JSON event nor a GET query.", ""}
}

func missingURL() *Failure {
	return &Failure{http.StatusBadRequest, ReasonMissingURL, "Target URL is missing.", ""}
}

func missingSecret(name string) *Failure {
	return &Failure{http.StatusInternalServerError, ReasonMissingSecret,
		fmt.Sprintf("Environment variable %s is not configured.", name), ""}
}

func missingToken() *Failure {
	return &Failure{http.StatusUnauthorized, ReasonMissingToken, "Security token is missing.", ""}
}

func invalidToken() *Failure {
	return &Failure{http.StatusUnauthorized, ReasonInvalidToken, "Token validation failed.", ""}
}

func requestException(err error) *Failure {
	return &Failure{StatusRequestException, ReasonRequestException, "HTTP request to origin failed.", err.Error()}
}
