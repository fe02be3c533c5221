// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package geneaccess

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of PatientInfo.DOB.
const DateLayout = "2006-01-02"

// MaxAge bounds the age accepted by the intake form.
const MaxAge = 150

// sexValues maps accepted inputs to the value sent to the backend.
var sexValues = map[string]string{
	"male":      "Male",
	"m":         "Male",
	"female":    "Female",
	"f":         "Female",
	"ambiguous": "Ambiguous",
	"other":     "Other",
}

// FieldError is a single invalid intake form field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors collects every invalid field of a form.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

// For returns the message for field, or "".
func (e FieldErrors) For(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// ParsePatientInfo validates raw form input and builds a PatientInfo.
// now is used to reject dates of birth in the future.
func ParsePatientInfo(name, sex, age, dob string, now time.Time) (PatientInfo, error) {
	var errs FieldErrors
	info := PatientInfo{
		Name: strings.Join(strings.Fields(name), " "),
		DOB:  strings.TrimSpace(dob),
	}

	if info.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}

	if v, ok := sexValues[strings.ToLower(strings.TrimSpace(sex))]; ok {
		info.Sex = v
	} else {
		errs = append(errs, FieldError{Field: "sex", Message: "must be male, female, ambiguous or other"})
	}

	n, err := strconv.Atoi(strings.TrimSpace(age))
	switch {
	case err != nil:
		errs = append(errs, FieldError{Field: "age", Message: "must be a whole number"})
	case n < 0 || n > MaxAge:
		errs = append(errs, FieldError{Field: "age", Message: fmt.Sprintf("must be between 0 and %d", MaxAge)})
	default:
		info.Age = n
	}

	if born, err := time.Parse(DateLayout, info.DOB); err != nil {
		errs = append(errs, FieldError{Field: "dob", Message: "must be YYYY-MM-DD"})
	} else if born.After(now) {
		errs = append(errs, FieldError{Field: "dob", Message: "cannot be in the future"})
	}

	if len(errs) > 0 {
		return PatientInfo{}, errs
	}
	return info, nil
}
