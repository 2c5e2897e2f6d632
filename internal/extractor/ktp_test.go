package extractor

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validKTP() map[string]any {
	return map[string]any{
		"NIK":               "3171234567890001",
		"nama":              "BUDI SANTOSO",
		"tempat_lahir":      "JAKARTA",
		"tanggal_lahir":     "17-08-1990",
		"jenis_kelamin":     "LAKI-LAKI",
		"alamat":            "JL. MERDEKA NO. 1",
		"agama":             "ISLAM",
		"status_perkawinan": "KAWIN",
		"pekerjaan":         "KARYAWAN SWASTA",
		"kewarganegaraan":   "WNI",
	}
}

func decode(t *testing.T, raw string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func TestKTP_Validate(t *testing.T) {
	k := NewKTP()

	tests := []struct {
		name   string
		mutate func(m map[string]any)
		want   bool
	}{
		{name: "complete", mutate: func(map[string]any) {}, want: true},
		{name: "extra keys allowed", mutate: func(m map[string]any) { m["rt_rw"] = "001/002" }, want: true},
		{name: "missing field", mutate: func(m map[string]any) { delete(m, "agama") }, want: false},
		{name: "empty string", mutate: func(m map[string]any) { m["nama"] = "" }, want: false},
		{name: "null value", mutate: func(m map[string]any) { m["alamat"] = nil }, want: false},
		{name: "false value", mutate: func(m map[string]any) { m["pekerjaan"] = false }, want: false},
		{name: "zero value", mutate: func(m map[string]any) { m["agama"] = json.Number("0") }, want: false},
		{name: "empty list", mutate: func(m map[string]any) { m["alamat"] = []any{} }, want: false},
		{name: "empty object", mutate: func(m map[string]any) { m["alamat"] = map[string]any{} }, want: false},
		{name: "non-empty object", mutate: func(m map[string]any) { m["alamat"] = map[string]any{"jalan": "MERDEKA"} }, want: true},
		{name: "short NIK", mutate: func(m map[string]any) { m["NIK"] = "123" }, want: false},
		{name: "17 digit NIK", mutate: func(m map[string]any) { m["NIK"] = "31712345678900012" }, want: false},
		{name: "NIK with letters", mutate: func(m map[string]any) { m["NIK"] = "31712345678900AB" }, want: false},
		{name: "NIK with spaces", mutate: func(m map[string]any) { m["NIK"] = "3171 2345 6789 00" }, want: false},
		{name: "numeric NIK", mutate: func(m map[string]any) { m["NIK"] = json.Number("3171234567890001") }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := validKTP()
			tt.mutate(data)
			assert.Equal(t, tt.want, k.Validate(data))
		})
	}
}

func TestKTP_ValidateNonObjects(t *testing.T) {
	k := NewKTP()

	assert.False(t, k.Validate(decode(t, `[1, 2, 3]`)))
	assert.False(t, k.Validate(decode(t, `"NIK"`)))
	assert.False(t, k.Validate(decode(t, `null`)))
	assert.False(t, k.Validate(decode(t, `{}`)))
}

func TestKTP_ValidateDecodedJSON(t *testing.T) {
	k := NewKTP()
	raw := `{"NIK":"3171234567890001","nama":"SITI","tempat_lahir":"BANDUNG","tanggal_lahir":"01-01-1985",
		"jenis_kelamin":"PEREMPUAN","alamat":"JL. ASIA AFRIKA","agama":"ISLAM","status_perkawinan":"BELUM KAWIN",
		"pekerjaan":"PELAJAR","kewarganegaraan":"WNI"}`

	data := decode(t, raw)

	assert.True(t, k.Validate(data))
	assert.NoError(t, k.Check(data))
	assert.Equal(t, "3171234567890001", k.UniqueIdentifier(data.(map[string]any)))
}

func TestKTP_CheckReportsViolation(t *testing.T) {
	k := NewKTP()
	data := validKTP()
	data["NIK"] = "12"

	err := k.Check(data)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "NIK")
}

func TestKTP_Prompt(t *testing.T) {
	k := NewKTP()

	assert.Equal(t, DocumentTypeKTP, k.DocumentType())
	for _, f := range KTPRequiredFields {
		assert.Contains(t, k.Prompt(), f)
	}
	assert.Contains(t, k.Prompt(), "JSON")
}

func TestKTP_UniqueIdentifier(t *testing.T) {
	k := NewKTP()

	assert.Equal(t, "3171234567890001", k.UniqueIdentifier(validKTP()))
	assert.Equal(t, "", k.UniqueIdentifier(map[string]any{}))
	assert.Equal(t, "42", k.UniqueIdentifier(map[string]any{"NIK": json.Number("42")}))
}
