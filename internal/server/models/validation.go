package models

import (
	"errors"
	"regexp"

	"github.com/dmitrijs2005/finwise/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
)

var nameRegexp = regexp.MustCompile(`^[\p{L}][\p{L}\s'-]*$`)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// asValidationError converts ozzo field errors into *common.ValidationError
// so callers can match common.ErrorValidation.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}

	var fields validation.Errors
	if errors.As(err, &fields) {
		ve := &common.ValidationError{Fields: make(map[string]string, len(fields))}
		for k, e := range fields {
			if e != nil {
				ve.Fields[k] = e.Error()
			}
		}
		if len(ve.Fields) == 0 {
			return nil
		}
		return ve
	}

	return err
}
