package services

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Hungarian attribute names used in field messages
var attributeNames = map[string]string{
	"name":        "név",
	"email":       "e-mail cím",
	"password":    "jelszó",
	"is_admin":    "admin jogosultság",
	"title":       "cím",
	"description": "leírás",
	"location":    "helyszín",
	"starts_at":   "kezdés időpontja",
	"ends_at":     "befejezés időpontja",
	"capacity":    "férőhely",
}

func attribute(field string) string {
	if name, ok := attributeNames[field]; ok {
		return name
	}
	return field
}

func msgRequired(field string) string {
	return fmt.Sprintf("A(z) %s megadása kötelező.", attribute(field))
}

func msgTaken(field string) string {
	return fmt.Sprintf("A(z) %s már foglalt.", attribute(field))
}

// ErrInvalidFlag indicates a boolean form value outside the accepted set
var ErrInvalidFlag = errors.New("invalid boolean value")

// ParseFlag interprets a checkbox or boolean form value.
// An absent value is false; anything outside the accepted set is an error.
func ParseFlag(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true, nil
	case "", "0", "false", "off", "no":
		return false, nil
	default:
		return false, ErrInvalidFlag
	}
}

// ValidationError carries per-field messages and the non-secret submitted values
type ValidationError struct {
	Fields map[string][]string
	Old    map[string]string
}

func newValidationError(old map[string]string) *ValidationError {
	if old == nil {
		old = map[string]string{}
	}
	return &ValidationError{Fields: map[string][]string{}, Old: old}
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// Add appends a message for field
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// Has reports whether field has at least one message
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// First returns the first message for field, or ""
func (e *ValidationError) First(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// PasswordPolicy describes the rules a new password must satisfy
type PasswordPolicy struct {
	MinLength        int
	RequireMixedCase bool
	RequireNumbers   bool
	RequireSymbols   bool
}

// DefaultPasswordPolicy requires at least 8 characters
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: 8}
}

// bcrypt ignores input past 72 bytes
const maxPasswordBytes = 72

// Check returns the messages for every rule password violates
func (p PasswordPolicy) Check(password string) []string {
	attr := attribute("password")
	var msgs []string

	if n := len([]rune(password)); n < p.MinLength {
		msgs = append(msgs, fmt.Sprintf("A(z) %s legalább %d karakter hosszú kell legyen.", attr, p.MinLength))
	}
	if len(password) > maxPasswordBytes {
		msgs = append(msgs, fmt.Sprintf("A(z) %s nem lehet hosszabb %d bájtnál.", attr, maxPasswordBytes))
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			symbol = true
		}
	}

	if p.RequireMixedCase && !(lower && upper) {
		msgs = append(msgs, fmt.Sprintf("A(z) %s tartalmazzon legalább egy kis- és egy nagybetűt.", attr))
	}
	if p.RequireNumbers && !digit {
		msgs = append(msgs, fmt.Sprintf("A(z) %s tartalmazzon legalább egy számjegyet.", attr))
	}
	if p.RequireSymbols && !symbol {
		msgs = append(msgs, fmt.Sprintf("A(z) %s tartalmazzon legalább egy speciális karaktert.", attr))
	}
	return msgs
}

// Validator runs struct-tag validation and renders Hungarian field messages.
// Field names come from the form tag so messages key on the submitted names.
type Validator struct {
	validate *validator.Validate
	policy   PasswordPolicy
}

// NewValidator creates a validator enforcing policy for new passwords
func NewValidator(policy PasswordPolicy) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("flag", func(fl validator.FieldLevel) bool {
		_, err := ParseFlag(fl.Field().String())
		return err == nil
	})

	return &Validator{validate: v, policy: policy}
}

// Struct validates s and adds a message per failing field to verr
func (v *Validator) Struct(s interface{}, verr *ValidationError) {
	err := v.validate.Struct(s)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("_", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
}

// Password checks presence, confirmation and the policy.
// With required false an empty password passes untouched.
func (v *Validator) Password(password, confirmation string, required bool, verr *ValidationError) {
	if password == "" {
		if required {
			verr.Add("password", msgRequired("password"))
		}
		return
	}
	if password != confirmation {
		verr.Add("password", fmt.Sprintf("A(z) %s megerősítése nem egyezik.", attribute("password")))
	}
	for _, msg := range v.policy.Check(password) {
		verr.Add("password", msg)
	}
}

func fieldMessage(fe validator.FieldError) string {
	attr := attribute(fe.Field())
	switch fe.Tag() {
	case "required":
		return msgRequired(fe.Field())
	case "max":
		return fmt.Sprintf("A(z) %s nem lehet hosszabb %s karakternél.", attr, fe.Param())
	case "email":
		return fmt.Sprintf("A(z) %s formátuma érvénytelen.", attr)
	case "flag":
		return fmt.Sprintf("A(z) %s értéke igaz vagy hamis kell legyen.", attr)
	case "min", "gte":
		return fmt.Sprintf("A(z) %s legalább %s kell legyen.", attr, fe.Param())
	case "gtfield":
		return fmt.Sprintf("A(z) %s a kezdés utáni időpont kell legyen.", attr)
	default:
		return fmt.Sprintf("A(z) %s érvénytelen.", attr)
	}
}
