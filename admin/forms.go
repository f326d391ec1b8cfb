package admin

import (
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"pressroom/content"
)

// Form helpers only touch fields present in the request, so updates can
// send a subset of fields.

func formString(c *gin.Context, key string, dst *string) {
	if v, ok := c.GetPostForm(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

// formText keeps surrounding whitespace, for rich text bodies.
func formText(c *gin.Context, key string, dst *string) {
	if v, ok := c.GetPostForm(key); ok {
		*dst = v
	}
}

func formBool(c *gin.Context, key string, dst *bool) error {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	b, err := parseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "yes":
		return true, nil
	case "", "off", "no":
		return false, nil
	}
	return strconv.ParseBool(v)
}

// formOptionalID reads a nullable foreign key. An empty value clears it.
func formOptionalID(c *gin.Context, key string, dst **uint) error {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		*dst = nil
		return nil
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: not an id", key)
	}
	u := uint(id)
	*dst = &u
	return nil
}

// formIDs reads repeated or comma separated ids. ok is false when the key
// is absent.
func formIDs(c *gin.Context, key string) (ids []uint, ok bool, err error) {
	values, ok := c.GetPostFormArray(key)
	if !ok {
		return nil, false, nil
	}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				return nil, true, fmt.Errorf("%s: %q is not an id", key, part)
			}
			ids = append(ids, uint(id))
		}
	}
	return ids, true, nil
}

// formUpload opens an uploaded file. The returned close func is never nil.
func formUpload(c *gin.Context, key string) (*content.Upload, func(), error) {
	fh, err := c.FormFile(key)
	if err != nil || fh == nil {
		return nil, func() {}, nil
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*content.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &content.Upload{Filename: fh.Filename, Body: f}, func() { f.Close() }, nil
}
