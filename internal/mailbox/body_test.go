package mailbox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func textPart(body string) *gmail.MessagePart {
	return &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: b64(body)},
	}
}

func TestResolveBody_SimpleTextMessage(t *testing.T) {
	got := ResolveBody(textPart("Your flight is confirmed."))

	assert.Equal(t, "Your flight is confirmed.", got)
}

func TestResolveBody_MultipartAlternative(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			textPart("plain version"),
			{
				MimeType: "text/html",
				Body:     &gmail.MessagePartBody{Data: b64("<p>html version</p>")},
			},
		},
	}

	assert.Equal(t, "plain version", ResolveBody(payload))
}

func TestResolveBody_NestedMultipart(t *testing.T) {
	// multipart/mixed wrapping multipart/alternative, the shape Gmail produces
	// for messages with attachments.
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "text/html",
						Body:     &gmail.MessagePartBody{Data: b64("<p>html</p>")},
					},
					textPart("deeply nested plain text"),
				},
			},
			{
				MimeType: "application/pdf",
				Body:     &gmail.MessagePartBody{AttachmentId: "att-1"},
			},
		},
	}

	assert.Equal(t, "deeply nested plain text", ResolveBody(payload))
}

func TestResolveBody_FirstNonEmptyWins(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: ""}},
			textPart("second part has content"),
		},
	}

	assert.Equal(t, "second part has content", ResolveBody(payload))
}

func TestResolveBody_HTMLOnly(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "text/html",
		Body:     &gmail.MessagePartBody{Data: b64("<p>only html</p>")},
	}

	assert.Empty(t, ResolveBody(payload))
}

func TestResolveBody_NilPayload(t *testing.T) {
	assert.Empty(t, ResolveBody(nil))
}

func TestResolveBody_InvalidBase64(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: "!!! not base64 !!!"},
	}

	assert.Empty(t, ResolveBody(payload))
}

func TestResolveBody_UnpaddedBase64(t *testing.T) {
	// Gmail sometimes omits padding; the raw decoder picks those up.
	raw := base64.RawURLEncoding.EncodeToString([]byte("unpadded body"))
	payload := &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: raw},
	}

	assert.Equal(t, "unpadded body", ResolveBody(payload))
}
