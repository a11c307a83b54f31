package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/clientdesk/internal/telegram/commands"
)

func noop(c tele.Context) error { return nil }

func TestLookupCommandByNameAndAlias(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     noop,
		Description: "cancel",
		Aliases:     []string{"❌ Скасувати"},
	})

	tests := []struct {
		input   string
		wantKey string
		wantOK  bool
	}{
		{"/cancel", "/cancel", true},
		{"cancel", "/cancel", true},
		{"❌ Скасувати", "/cancel", true},
		{"/unknown", "", false},
		{"перший ліпший текст", "", false},
	}
	for _, tt := range tests {
		key, _, ok := reg.LookupCommand(tt.input)
		if ok != tt.wantOK || key != tt.wantKey {
			t.Errorf("LookupCommand(%q) = (%q, %v), want (%q, %v)", tt.input, key, ok, tt.wantKey, tt.wantOK)
		}
	}
}

func TestRegisterCommandRejectsInvalid(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("no_slash", commands.Command{Handler: noop, Description: "x"})
	reg.RegisterCommand("/ok", commands.Command{Handler: nil, Description: "x"})
	reg.RegisterCommand("/hidden", commands.Command{Handler: noop, Description: "x", Hidden: true})

	if list := reg.ListCommands(true); len(list) != 0 {
		t.Fatalf("visible commands = %v", list)
	}
	if list := reg.ListCommands(false); len(list) != 1 || list[0].Text != "/hidden" {
		t.Fatalf("all commands = %v", list)
	}
}

func TestRegisterCallbackDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("edit_phone", noop); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCallback("edit_phone", noop); err == nil {
		t.Fatal("duplicate registration accepted")
	}
	if _, ok := reg.GetCallback("edit_phone"); !ok {
		t.Fatal("callback lost")
	}
}
