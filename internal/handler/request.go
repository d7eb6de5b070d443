package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/dukerupert/casa/internal/errs"
	"github.com/dukerupert/casa/internal/model"
	"github.com/dukerupert/casa/internal/store"
)

// Attributes are the top-level fields of a request body.
type Attributes map[string]json.RawMessage

// Has reports whether the client sent field, even as null.
func (a Attributes) Has(field string) bool {
	_, ok := a[field]
	return ok
}

// String returns field as a string. Absent, null or non-string values give "".
func (a Attributes) String(field string) string {
	var s string
	if raw, ok := a[field]; ok {
		json.Unmarshal(raw, &s)
	}
	return s
}

// Flag returns field as a bool. Form bodies carry it as "true" or "false";
// any other value is invalid. An absent or null field is false.
func (a Attributes) Flag(field string) (bool, error) {
	raw, ok := a[field]
	if !ok || string(raw) == "null" {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if b, err := strconv.ParseBool(s); err == nil {
			return b, nil
		}
	}
	return false, errs.New(errs.EInvalid, field+" must be true or false")
}

// Set stores v under field.
func (a Attributes) Set(field string, v any) {
	raw, _ := json.Marshal(v)
	a[field] = raw
}

const imageField = "image"

// readAttributes reads a JSON, multipart or urlencoded body. When uploads is
// set, a multipart "image" file becomes the icon attribute.
func readAttributes(w http.ResponseWriter, r *http.Request, maxBytes int64, uploads bool) (Attributes, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, bodyError(err)
		}
		attrs := formAttributes(r.MultipartForm.Value)
		if uploads {
			icon, err := readIcon(r)
			if err != nil {
				return nil, err
			}
			if icon != nil {
				attrs.Set("icon", icon)
			}
		}
		return attrs, nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
		return formAttributes(r.PostForm), nil
	default:
		return decodeJSON(r.Body)
	}
}

func decodeJSON(body io.Reader) (Attributes, error) {
	attrs := Attributes{}
	if err := json.NewDecoder(body).Decode(&attrs); err != nil {
		if errors.Is(err, io.EOF) {
			return attrs, nil
		}
		return nil, bodyError(err)
	}
	if attrs == nil {
		attrs = Attributes{}
	}
	return attrs, nil
}

// formAttributes keeps the first value of every field. Values that are JSON
// arrays or objects are used as JSON, anything else as a string.
func formAttributes(values map[string][]string) Attributes {
	attrs := Attributes{}
	for field, vs := range values {
		if len(vs) == 0 {
			continue
		}
		v := bytes.TrimSpace([]byte(vs[0]))
		if len(v) > 0 && (v[0] == '[' || v[0] == '{') && json.Valid(v) {
			attrs[field] = json.RawMessage(v)
			continue
		}
		attrs.Set(field, vs[0])
	}
	return attrs
}

func readIcon(r *http.Request) (*model.Icon, error) {
	f, hdr, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, bodyError(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, bodyError(err)
	}
	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &model.Icon{Data: data, ContentType: contentType}, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errs.Newf(errs.EInvalid, "request body exceeds %d bytes", tooLarge.Limit)
	}
	return &errs.Error{Code: errs.EInvalid, Msg: "invalid request body", Err: err}
}

// bind decodes attrs into a new document.
func bind[T model.Document](attrs Attributes, newDoc func() T) (T, error) {
	doc := newDoc()
	raw, err := json.Marshal(attrs)
	if err != nil {
		var zero T
		return zero, errs.Wrap(err, errs.EInternal, "handler.bind")
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		var zero T
		return zero, &errs.Error{Code: errs.EInvalid, Msg: "invalid attributes: " + err.Error(), Err: err}
	}
	return doc, nil
}

// populateSpec returns the populate paths requested with ?populate, or def.
func populateSpec(r *http.Request, def store.Paths) store.Paths {
	if q := r.URL.Query(); q.Has("populate") {
		return store.ParsePaths(q.Get("populate"))
	}
	return def
}
