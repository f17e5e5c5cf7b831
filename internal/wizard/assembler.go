// internal/wizard/assembler.go
package wizard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"

	"rental-portal/internal/common/errors"
	"rental-portal/pkg/registry"
)

// BodyDataField is the multipart part carrying every non-file field as JSON.
const BodyDataField = "bodyData"

// Payload is an assembled multipart submission.
type Payload struct {
	Body        []byte
	ContentType string
	FileFields  []string
	BodyData    map[string]interface{}
}

// Assemble turns a form state into the multipart body the backend expects:
// one binary part per file field, named after the field, plus a bodyData
// part holding the remaining fields as a JSON object. File fields left empty
// are omitted.
func Assemble(def *registry.Wizard, state FormState) (*Payload, error) {
	bodyData := make(map[string]interface{})
	files := make(map[string]*File)

	for key, value := range state {
		if def.IsFileField(key) {
			if value == nil {
				continue
			}
			f, ok := value.(*File)
			if !ok || f == nil {
				return nil, errors.NewInvalidFileFieldError(key, fmt.Sprintf("got %T", value))
			}
			files[key] = f
			continue
		}
		if _, ok := value.(*File); ok {
			return nil, errors.NewInvalidFileFieldError(key, "file supplied for a field that is not declared as a file")
		}
		bodyData[key] = value
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	names := make([]string, 0, len(files))
	for k := range files {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := writeFilePart(mw, name, files[name]); err != nil {
			return nil, errors.NewInternalError(fmt.Errorf("write file part %s: %w", name, err))
		}
	}

	encoded, err := json.Marshal(bodyData)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("encode %s: %w", BodyDataField, err))
	}
	if err := mw.WriteField(BodyDataField, string(encoded)); err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("write %s: %w", BodyDataField, err))
	}
	if err := mw.Close(); err != nil {
		return nil, errors.NewInternalError(err)
	}

	return &Payload{
		Body:        buf.Bytes(),
		ContentType: mw.FormDataContentType(),
		FileFields:  names,
		BodyData:    bodyData,
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, field string, f *File) error {
	filename := f.Name
	if filename == "" {
		filename = field
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(f.Data)
	return err
}
