package extractor

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DocumentTypeKTP is the registry key of the Indonesian national ID card.
const DocumentTypeKTP = "ktp"

// KTPIdentifierField holds the 16 digit NIK.
const KTPIdentifierField = "NIK"

// KTPRequiredFields are the keys the model must return, all non-empty.
var KTPRequiredFields = []string{
	KTPIdentifierField,
	"nama",
	"tempat_lahir",
	"tanggal_lahir",
	"jenis_kelamin",
	"alamat",
	"agama",
	"status_perkawinan",
	"pekerjaan",
	"kewarganegaraan",
}

// KTP extracts Indonesian national ID cards.
type KTP struct {
	schema *jsonschema.Schema
	prompt string
}

// NewKTP compiles the KTP validation schema.
func NewKTP() *KTP {
	return &KTP{
		schema: jsonschema.MustCompileString("ktp.schema.json", ktpSchema()),
		prompt: fmt.Sprintf(
			"Extract the data printed on this Indonesian KTP (identity card) image. "+
				"Respond with a single JSON object and nothing else, using exactly these keys: %s. "+
				"%s is the 16 digit Nomor Induk Kependudukan written as a string.",
			strings.Join(KTPRequiredFields, ", "), KTPIdentifierField,
		),
	}
}

var _ Extractor = (*KTP)(nil)

func (k *KTP) DocumentType() string { return DocumentTypeKTP }

func (k *KTP) Prompt() string { return k.prompt }

// Validate reports whether data is an object holding every required field with a
// non-empty value and a NIK made of exactly 16 digits.
func (k *KTP) Validate(data any) bool {
	return k.Check(data) == nil
}

// Check is Validate with the schema violation as an error.
func (k *KTP) Check(data any) error {
	return k.schema.Validate(data)
}

// UniqueIdentifier returns the NIK. Callers validate first.
func (k *KTP) UniqueIdentifier(data map[string]any) string {
	v, ok := data[KTPIdentifierField]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ktpSchema requires every field, rejects "falsy" values (null, "", 0, false, [], {})
// and pins NIK to a 16 digit string.
func ktpSchema() string {
	props := make([]string, 0, len(KTPRequiredFields))
	required := make([]string, 0, len(KTPRequiredFields))
	for _, f := range KTPRequiredFields {
		required = append(required, fmt.Sprintf("%q", f))
		if f == KTPIdentifierField {
			props = append(props, fmt.Sprintf(`%q: {"type": "string", "pattern": "^[0-9]{16}$"}`, f))
			continue
		}
		props = append(props, fmt.Sprintf(`%q: {"$ref": "#/$defs/present"}`, f))
	}
	return `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": [` + strings.Join(required, ", ") + `],
  "properties": {` + strings.Join(props, ",\n    ") + `},
  "$defs": {
    "present": {"not": {"enum": [null, "", 0, false, [], {}]}}
  }
}`
}
