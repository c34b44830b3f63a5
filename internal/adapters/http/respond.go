package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"campus/internal/application/orchestrators"
	"campus/internal/domain/absence"
	"campus/internal/domain/account"
	"campus/internal/domain/attendance"
	"campus/internal/domain/exam"
	"campus/internal/domain/holiday"
	"campus/internal/domain/outbox"
	"campus/internal/domain/student"
	"campus/internal/domain/term"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// validate checks request DTOs. Field errors use the JSON names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Kind       string   `json:"kind"`
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Percentage string   `json:"percentage,omitempty"`
	Threshold  string   `json:"threshold,omitempty"`
	Dates      []string `json:"dates,omitempty"`
	Fields     []string `json:"fields,omitempty"`
}

var kindStatus = map[absence.Kind]int{
	absence.KindValidation:    http.StatusBadRequest,
	absence.KindEligibility:   http.StatusUnprocessableEntity,
	absence.KindConflict:      http.StatusConflict,
	absence.KindState:         http.StatusConflict,
	absence.KindAuthorization: http.StatusForbidden,
	absence.KindNotFound:      http.StatusNotFound,
}

// sentinel maps a plain error from the directory and account layers to a response.
type sentinel struct {
	err    error
	status int
	kind   absence.Kind
	code   string
}

var sentinels = []sentinel{
	{orchestrators.ErrInvalidCredentials, http.StatusUnauthorized, absence.KindAuthorization, "invalid_credentials"},
	{orchestrators.ErrAccountLocked, http.StatusForbidden, absence.KindAuthorization, "account_locked"},
	{orchestrators.ErrCurrentPasswordWrong, http.StatusBadRequest, absence.KindValidation, "current_password_wrong"},
	{orchestrators.ErrNewPasswordSame, http.StatusBadRequest, absence.KindValidation, "new_password_same"},
	{orchestrators.ErrMissingFields, http.StatusBadRequest, absence.KindValidation, "missing_fields"},
	{orchestrators.ErrEmailAlreadyExists, http.StatusConflict, absence.KindConflict, "email_exists"},
	{orchestrators.ErrStudentExists, http.StatusConflict, absence.KindConflict, "student_exists"},
	{account.ErrNotFound, http.StatusNotFound, absence.KindNotFound, "account_not_found"},
	{student.ErrNotFound, http.StatusNotFound, absence.KindNotFound, "student_not_found"},
	{outbox.ErrNotFound, http.StatusNotFound, absence.KindNotFound, "outbox_entry_not_found"},
}

// invalidInput lists domain validation errors that are reported as 400.
var invalidInput = []error{
	account.ErrInvalidEmail, account.ErrEmptyEmail, account.ErrInvalidRole,
	account.ErrEmptyPassword, account.ErrPasswordTooShort, account.ErrMissingStudent,
	student.ErrEmptyID, student.ErrEmptyName, student.ErrInvalidEmail, student.ErrEmptySection, student.ErrEmptyBatch,
	holiday.ErrEmptyName, holiday.ErrInvalidDates, holiday.ErrEmptyStartDate, holiday.ErrEmptyEndDate,
	term.ErrEmptyName, term.ErrInvalidDates, term.ErrEmptyStartDate, term.ErrEmptyEndDate,
	exam.ErrEmptySection, exam.ErrEmptySubject, exam.ErrEmptyDate,
	attendance.ErrEmptyStudentID, attendance.ErrEmptyDate, attendance.ErrInvalidStatus,
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", "error", err)
	}
}

func writeErrorBody(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, map[string]errorBody{"error": body})
}

// writeError maps err to a status code and the error envelope.
// Unclassified errors are logged and reported as a generic 500.
func writeError(w http.ResponseWriter, err error) {
	var ae *absence.Error
	if errors.As(err, &ae) {
		status, ok := kindStatus[ae.Kind]
		if !ok {
			internalError(w, err)
			return
		}
		body := errorBody{Kind: string(ae.Kind), Code: ae.Code, Message: ae.Message}
		if body.Message == "" {
			body.Message = ae.Error()
		}
		if ae.Percentage != nil {
			body.Percentage = ae.Percentage.StringFixed(2)
		}
		if ae.Threshold != nil {
			body.Threshold = ae.Threshold.StringFixed(2)
		}
		if len(ae.Dates) > 0 {
			body.Dates = ae.DateStrings()
		}
		writeErrorBody(w, status, body)
		return
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, fe.Field()+":"+fe.Tag())
		}
		writeErrorBody(w, http.StatusBadRequest, errorBody{
			Kind: string(absence.KindValidation), Code: "invalid_field",
			Message: "one or more fields are invalid", Fields: fields,
		})
		return
	}

	var ie *orchestrators.ImportValidationError
	if errors.As(err, &ie) {
		writeErrorBody(w, http.StatusBadRequest, errorBody{Kind: string(absence.KindValidation), Code: "invalid_csv", Message: ie.Message})
		return
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			writeErrorBody(w, s.status, errorBody{Kind: string(s.kind), Code: s.code, Message: s.err.Error()})
			return
		}
	}
	for _, target := range invalidInput {
		if errors.Is(err, target) {
			writeErrorBody(w, http.StatusBadRequest, errorBody{Kind: string(absence.KindValidation), Code: "invalid_field", Message: target.Error()})
			return
		}
	}
	internalError(w, err)
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeErrorBody(w, http.StatusInternalServerError, errorBody{Kind: "internal", Code: "internal_error", Message: "internal server error"})
}

// strictDecode decodes a JSON body into v, rejecting unknown fields, then
// runs the validate tags.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return absence.Validationf("empty_body", "request body is required")
		}
		return absence.Validationf("malformed_json", "malformed JSON: %v", err)
	}
	return validate.Struct(v)
}

// optionalDecode is strictDecode for bodies that may be empty.
func optionalDecode(r *http.Request, v any) error {
	if r.ContentLength == 0 {
		return validate.Struct(v)
	}
	err := strictDecode(r, v)
	if errors.Is(err, &absence.Error{Kind: absence.KindValidation, Code: "empty_body"}) {
		return validate.Struct(v)
	}
	return err
}

// requiredParam returns a validation error naming the missing query parameter.
func requiredParam(name string) error {
	return absence.Validationf("missing_parameter", "query parameter %q is required", name)
}

func badDate(field, value string) error {
	return absence.Validationf("invalid_date", "%s %q is not a YYYY-MM-DD date", field, value)
}
