package speech

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"

	"github.com/neurosense/assessment-service/internal/audio"
)

// audioForm builds a multipart body with the clip as "file" followed by the
// given plain fields.
func audioForm(p audio.Payload, fields [][2]string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="audio.%s"`, p.Extension()))
	header.Set("Content-Type", p.MIMEType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err = part.Write(p.Data); err != nil {
		return nil, "", fmt.Errorf("writing audio: %w", err)
	}

	for _, f := range fields {
		if err = writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("writing %s field: %w", f[0], err)
		}
	}

	if err = writer.Close(); err != nil {
		return nil, "", fmt.Errorf("closing writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}
