package syncbridge

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"insurechain/internal/mirror"
	dErrors "insurechain/pkg/domain-errors"
)

// patientRecordSchema gates hospital-originated submissions. The mirror
// itself is schemaless; the gate exists because patient records do not pass
// through the ledger's constructors like every other record kind does.
const patientRecordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["patient_id", "full_name", "diagnosis_code", "physician"],
  "properties": {
    "patient_id":     {"type": "string", "pattern": "^PAT-[A-Za-z0-9-]+$"},
    "full_name":      {"type": "string", "minLength": 1, "maxLength": 256},
    "diagnosis_code": {"type": "string", "minLength": 1, "maxLength": 32},
    "physician":      {"type": "string", "minLength": 1, "maxLength": 256},
    "notes":          {"type": "string", "maxLength": 1024}
  },
  "additionalProperties": false
}`

var compiledPatientRecordSchema = func() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(patientRecordSchema))
	if err != nil {
		panic("patient record schema: " + err.Error())
	}
	return schema
}()

// PatientRecordSubmission is a hospital-originated medical record headed for
// the organization-local mirror, out of band of the authoritative ledger.
type PatientRecordSubmission struct {
	PatientID     string `json:"patient_id"`
	FullName      string `json:"full_name"`
	DiagnosisCode string `json:"diagnosis_code"`
	Physician     string `json:"physician"`
	Notes         string `json:"notes,omitempty"`
}

// SubmitPatientRecord validates the submission against the embedded schema
// and writes it to the mirror. The record id is the patient id, so repeated
// submissions for the same patient replace rather than accumulate.
func (b *Bridge) SubmitPatientRecord(ctx context.Context, sub PatientRecordSubmission) (*mirror.Record, error) {
	data, err := json.Marshal(sub)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode patient record")
	}

	result, err := compiledPatientRecordSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "schema validation error")
	}
	if !result.Valid() {
		var reasons []string
		for _, e := range result.Errors() {
			reasons = append(reasons, e.String())
		}
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid patient record: %s", strings.Join(reasons, "; "))
	}

	payload := map[string]any{
		"patient_id":     sub.PatientID,
		"full_name":      sub.FullName,
		"diagnosis_code": sub.DiagnosisCode,
		"physician":      sub.Physician,
	}
	if sub.Notes != "" {
		payload["notes"] = sub.Notes
	}

	if err := b.mirror.Put(ctx, mirror.KindPatientRecord, sub.PatientID, payload, uuid.Nil); err != nil {
		return nil, err
	}
	return b.mirror.Get(ctx, mirror.KindPatientRecord, sub.PatientID)
}
