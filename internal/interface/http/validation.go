package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/qri-io/jsonschema"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST SCHEMAS
// Payloads are checked against a JSON Schema before they are decoded into
// request structs. Cross-entity rules stay in the command handlers.
// ══════════════════════════════════════════════════════════════════════════════

const (
	schemaLogin = `{
		"type": "object",
		"required": ["username", "password"],
		"properties": {
			"username": {"type": "string", "minLength": 3, "maxLength": 255},
			"password": {"type": "string", "minLength": 6, "maxLength": 256}
		}
	}`

	schemaUserCreate = `{
		"type": "object",
		"required": ["username", "email", "password"],
		"properties": {
			"username":   {"type": "string", "minLength": 3, "maxLength": 64},
			"email":      {"type": "string", "format": "email", "maxLength": 255},
			"password":   {"type": "string", "minLength": 6, "maxLength": 256},
			"avatar_url": {"type": ["string", "null"], "maxLength": 255}
		}
	}`

	schemaUserUpdate = `{
		"type": "object",
		"properties": {
			"username":   {"type": ["string", "null"], "minLength": 3, "maxLength": 64},
			"email":      {"type": ["string", "null"], "format": "email", "maxLength": 255},
			"password":   {"type": ["string", "null"], "minLength": 6, "maxLength": 256},
			"avatar_url": {"type": ["string", "null"], "maxLength": 255}
		}
	}`

	schemaIndustry = `{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "minLength": 1, "maxLength": 255}
		}
	}`

	schemaSubIndustryCreate = `{
		"type": "object",
		"required": ["name", "industry_id"],
		"properties": {
			"name":        {"type": "string", "minLength": 1, "maxLength": 255},
			"industry_id": {"type": "integer", "minimum": 1},
			"base_score":  {"type": "number"}
		}
	}`

	schemaSubIndustryUpdate = `{
		"type": "object",
		"properties": {
			"name":        {"type": ["string", "null"], "minLength": 1, "maxLength": 255},
			"industry_id": {"type": ["integer", "null"], "minimum": 1},
			"base_score":  {"type": ["number", "null"]}
		}
	}`

	schemaCriteriaCreate = `{
		"type": "object",
		"required": ["text", "industry_id"],
		"properties": {
			"text":        {"type": "string", "minLength": 1, "maxLength": 255},
			"industry_id": {"type": "integer", "minimum": 1}
		}
	}`

	schemaCriteriaUpdate = `{
		"type": "object",
		"properties": {
			"text":        {"type": ["string", "null"], "minLength": 1, "maxLength": 255},
			"industry_id": {"type": ["integer", "null"], "minimum": 1}
		}
	}`

	schemaPointCreate = `{
		"type": "object",
		"required": ["name", "latitude", "longitude", "industry_id", "sub_industry_id"],
		"properties": {
			"name":            {"type": "string", "minLength": 1, "maxLength": 255},
			"latitude":        {"type": "number", "minimum": -90, "maximum": 90},
			"longitude":       {"type": "number", "minimum": -180, "maximum": 180},
			"industry_id":     {"type": "integer", "minimum": 1},
			"sub_industry_id": {"type": "integer", "minimum": 1},
			"creator_id":      {"type": ["integer", "null"], "minimum": 1}
		}
	}`

	schemaPointUpdate = `{
		"type": "object",
		"properties": {
			"name":            {"type": ["string", "null"], "minLength": 1, "maxLength": 255},
			"latitude":        {"type": ["number", "null"], "minimum": -90, "maximum": 90},
			"longitude":       {"type": ["number", "null"], "minimum": -180, "maximum": 180},
			"industry_id":     {"type": ["integer", "null"], "minimum": 1},
			"sub_industry_id": {"type": ["integer", "null"], "minimum": 1},
			"creator_id":      {"type": ["integer", "null"], "minimum": 1}
		}
	}`

	schemaMarkCreate = `{
		"type": "object",
		"required": ["point_id", "question_ids", "answers", "weights"],
		"properties": {
			"point_id":     {"type": "integer", "minimum": 1},
			"user_id":      {"type": ["integer", "null"], "minimum": 1},
			"question_ids": {"type": "array", "minItems": 1, "items": {"type": "integer", "minimum": 1}},
			"answers":      {"type": "array", "minItems": 1, "items": {"type": "integer"}},
			"weights":      {"type": "array", "minItems": 1, "items": {"type": "number"}},
			"comment":      {"type": ["string", "null"], "maxLength": 2000},
			"photos":       {"type": "array", "items": {"type": "string"}}
		}
	}`
)

// Validator holds the compiled request schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// ErrInvalidPayload is returned for bodies that fail schema validation.
var ErrInvalidPayload = errors.New("invalid request payload")

// PayloadError lists the schema violations of a request body.
type PayloadError struct {
	Details []string
}

func (e *PayloadError) Error() string        { return ErrInvalidPayload.Error() }
func (e *PayloadError) Is(target error) bool { return target == ErrInvalidPayload }

// NewValidator compiles every request schema.
func NewValidator() (*Validator, error) {
	raw := map[string]string{
		"login":               schemaLogin,
		"user.create":         schemaUserCreate,
		"user.update":         schemaUserUpdate,
		"industry":            schemaIndustry,
		"sub_industry.create": schemaSubIndustryCreate,
		"sub_industry.update": schemaSubIndustryUpdate,
		"criteria.create":     schemaCriteriaCreate,
		"criteria.update":     schemaCriteriaUpdate,
		"point.create":        schemaPointCreate,
		"point.update":        schemaPointUpdate,
		"mark.create":         schemaMarkCreate,
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(raw))}
	for name, doc := range raw {
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal([]byte(doc), rs); err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = rs
	}
	return v, nil
}

// Decode reads the request body, validates it against the named schema
// and unmarshals it into dst.
func (v *Validator) Decode(r *http.Request, schema string, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return &PayloadError{Details: []string{"request body is empty"}}
	}

	rs, ok := v.schemas[schema]
	if !ok {
		return fmt.Errorf("unknown schema %q", schema)
	}

	keyErrs, err := rs.ValidateBytes(r.Context(), body)
	if err != nil {
		return &PayloadError{Details: []string{"malformed JSON: " + err.Error()}}
	}
	if len(keyErrs) > 0 {
		details := make([]string, 0, len(keyErrs))
		for _, ke := range keyErrs {
			details = append(details, ke.PropertyPath+": "+ke.Message)
		}
		return &PayloadError{Details: details}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &PayloadError{Details: []string{err.Error()}}
	}
	return nil
}

// decode runs Validator.Decode and writes a 400 on failure. It reports
// whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema string, dst any) bool {
	err := s.validator.Decode(r, schema, dst)
	if err == nil {
		return true
	}

	var pe *PayloadError
	if errors.As(err, &pe) {
		writeJSONError(w, r, http.StatusBadRequest, codeBadRequest, ErrInvalidPayload.Error(), pe.Details...)
		return false
	}
	writeError(w, r, err)
	return false
}
