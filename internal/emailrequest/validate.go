package emailrequest

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"queryresults/internal/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names so logs match what producers send.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseRequest decodes body as a JSON object. Anything that is not an object
// is treated as a missing body.
func ParseRequest(body string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(body), &fields); err != nil || fields == nil {
		return nil, ErrMissingBody
	}
	return fields, nil
}

// ValidateRequest parses body and builds a NotificationRequest.
//
// The ticket id is checked first and on its own: without it nothing can be
// reported, so ErrMissingTicketID is returned bare. The remaining fields are
// checked as a group and yield an *IncompleteRequestError carrying the ticket
// id. Values are used exactly as sent.
func ValidateRequest(body string) (types.NotificationRequest, error) {
	fields, err := ParseRequest(body)
	if err != nil {
		return types.NotificationRequest{}, err
	}

	zendeskID := stringField(fields, "zendeskId")
	if zendeskID == "" {
		return types.NotificationRequest{}, ErrMissingTicketID
	}

	req := types.NotificationRequest{
		Email:             stringField(fields, "email"),
		FirstName:         stringField(fields, "firstName"),
		ZendeskID:         zendeskID,
		SecureDownloadURL: stringField(fields, "secureDownloadUrl"),
	}

	if err := validate.Struct(req); err != nil {
		incomplete := &IncompleteRequestError{ZendeskID: zendeskID}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				incomplete.Missing = append(incomplete.Missing, fe.Field())
			}
		}
		return types.NotificationRequest{}, incomplete
	}

	return req, nil
}

// stringField returns fields[key] when it is a string and "" otherwise.
func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}
