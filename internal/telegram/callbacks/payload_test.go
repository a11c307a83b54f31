package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

type cbContext struct {
	tele.Context
	cb *tele.Callback
}

func (c *cbContext) Callback() *tele.Callback { return c.cb }

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantKey     string
		wantPayload string
	}{
		{"raw encoded", `\fedit_phone|42`, "edit_phone", "42"},
		{"no payload", `\fdelete_client`, "delete_client", ""},
		{"plain", "edit_comment|7", "edit_comment", "7"},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, payload := ParseCallbackData(&tele.Callback{Data: tt.data})
			if key != tt.wantKey || payload != tt.wantPayload {
				t.Fatalf("got (%q, %q), want (%q, %q)", key, payload, tt.wantKey, tt.wantPayload)
			}
		})
	}
}

func TestPayloadInt64ProcessedUpdate(t *testing.T) {
	// Telebot strips the prefix on processed updates: Unique is set and Data
	// holds the payload only.
	c := &cbContext{cb: &tele.Callback{Unique: "edit_phone", Data: "42"}}
	id, err := PayloadInt64(c)
	if err != nil {
		t.Fatal(err)
	}
	if id != 42 {
		t.Fatalf("id = %d", id)
	}
	if key := CallbackKey(c); key != "edit_phone" {
		t.Fatalf("key = %q", key)
	}
}
