package mailbox

import (
	"encoding/base64"

	"google.golang.org/api/gmail/v1"
)

// ResolveBody extracts the plain-text body from a (possibly multipart)
// message payload.
//
// It returns the first text/plain part with a non-empty body, decoded from
// its base64url transport encoding, walking nested multipart containers
// depth-first. Messages without such a part resolve to "" — the ingestion
// loop counts them as checked and marks them read without classifying them.
func ResolveBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if body := partText(payload); body != "" {
		return body
	}
	for _, part := range payload.Parts {
		if body := ResolveBody(part); body != "" {
			return body
		}
	}
	return ""
}

// partText decodes part's body if the part is declared text/plain.
func partText(part *gmail.MessagePart) string {
	if part.MimeType != "text/plain" || part.Body == nil || part.Body.Data == "" {
		return ""
	}
	raw, err := decodeBase64URL(part.Body.Data)
	if err != nil {
		return ""
	}
	return string(raw)
}

// decodeBase64URL decodes Gmail's web-safe base64, which arrives both with
// and without padding depending on the part.
func decodeBase64URL(s string) ([]byte, error) {
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawURLEncoding.DecodeString(s)
}
