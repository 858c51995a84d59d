package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emailsvc "github.com/mwalimu/somo/services/email"
)

func Test_contactApi_contact(t *testing.T) {
	f := setup(t)
	emailsvc.SentMessages = emailsvc.SentMessages[:0]

	tests := []httpTest{
		{
			name: "Fields required", body: marchallObj(t, map[string]string{"name": "Jo"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Valid email required",
			body: marchallObj(t, map[string]string{
				"name": "Jo", "email": "not-an-email", "subject": "Hi", "message": "Hello",
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "OK",
			body: marchallObj(t, map[string]string{
				"name": "Jo", "email": "jo@test.cd", "subject": "Pricing", "message": "Is Somo free for public schools?",
			}),
			wantCode: http.StatusOK, wantData: marchallObj(t, map[string]string{"success": "message sent"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/contact", tt.body)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	require.Len(t, emailsvc.SentMessages, 1)
	sent := emailsvc.SentMessages[0]
	assert.Contains(t, sent.Subject, "Pricing")
	require.NotNil(t, sent.ReplyTo)
	assert.Equal(t, "jo@test.cd", sent.ReplyTo.Address)
}
