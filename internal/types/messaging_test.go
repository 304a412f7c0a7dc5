package types

import (
	"encoding/json"
	"testing"
)

func TestOutcomeMessageJSONShape(t *testing.T) {
	data, err := json.Marshal(NewSuccessOutcome("12345"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"zendeskId":"12345","commentCopyText":"A link to your results has been sent to you."}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestNewFailureOutcome(t *testing.T) {
	msg := NewFailureOutcome("12345")

	if msg.ZendeskID != "12345" {
		t.Errorf("ZendeskID = %q, want %q", msg.ZendeskID, "12345")
	}
	if msg.CommentCopyText != "Your results could not be emailed." {
		t.Errorf("CommentCopyText = %q", msg.CommentCopyText)
	}
}

func TestNotificationRequestJSONFieldNames(t *testing.T) {
	body := `{"email":"test@email.com","firstName":"TestName","zendeskId":"12345","secureDownloadUrl":"secureDownload.url.com"}`

	var req NotificationRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := NotificationRequest{
		Email:             "test@email.com",
		FirstName:         "TestName",
		ZendeskID:         "12345",
		SecureDownloadURL: "secureDownload.url.com",
	}
	if req != want {
		t.Errorf("decoded = %+v, want %+v", req, want)
	}
}
