package notify

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func TestAlert(t *testing.T) {
	a := NewAlert()
	if open, _, _ := a.State(); open {
		t.Fatal("new alert should be closed")
	}

	a.Trigger("first", SeverityInfo)
	a.Trigger("Transaction t1 deleted", SeveritySuccess)
	open, msg, sev := a.State()
	if !open || msg != "Transaction t1 deleted" || sev != SeveritySuccess {
		t.Errorf("State() = %v, %q, %s", open, msg, sev)
	}

	a.Close()
	if open, msg, _ := a.State(); open || msg != "" {
		t.Errorf("after Close: open %v message %q", open, msg)
	}
}

func TestMultiAndThreshold(t *testing.T) {
	all := NewAlert()
	errorsOnly := NewAlert()
	sink := Multi{all, Threshold{Min: SeverityWarning, Sink: errorsOnly}}

	sink.Trigger("saved", SeveritySuccess)
	if _, msg, _ := all.State(); msg != "saved" {
		t.Errorf("all = %q, want saved", msg)
	}
	if open, _, _ := errorsOnly.State(); open {
		t.Error("threshold sink should drop success")
	}

	sink.Trigger("Failed to delete 1 transaction(s)", SeverityError)
	if _, msg, _ := errorsOnly.State(); msg != "Failed to delete 1 transaction(s)" {
		t.Errorf("errorsOnly = %q", msg)
	}

	sink.Close()
	if open, _, _ := all.State(); open {
		t.Error("Close should fan out")
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"info", SeverityInfo, false},
		{" Warning ", SeverityWarning, false},
		{"ERROR", SeverityError, false},
		{"fatal", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSeverity(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestLogSink(t *testing.T) {
	buf := &bytes.Buffer{}
	sink := NewLogSink(zerolog.New(buf))

	sink.Trigger("Failed to update transaction name", SeverityError)

	out := buf.String()
	if !strings.Contains(out, `"level":"error"`) || !strings.Contains(out, "Failed to update transaction name") {
		t.Errorf("log output = %s", out)
	}
}

type fakeMessenger struct {
	channelID string
	content   string
	err       error
}

func (f *fakeMessenger) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channelID = channelID
	f.content = content
	return &discordgo.Message{Content: content}, f.err
}

func TestDiscordSink(t *testing.T) {
	fake := &fakeMessenger{}
	closed := false
	sink := &DiscordSink{
		session:   fake,
		closer:    func() error { closed = true; return nil },
		channelID: "chan-1",
		log:       zerolog.Nop(),
	}

	sink.Trigger("2 transaction(s) deleted", SeveritySuccess)
	if fake.channelID != "chan-1" || fake.content != "**SUCCESS** 2 transaction(s) deleted" {
		t.Errorf("sent %q to %q", fake.content, fake.channelID)
	}

	sink.Close()
	if !closed {
		t.Error("Close should close the session")
	}
}

func TestDiscordSink_ErrorIsLogged(t *testing.T) {
	buf := &bytes.Buffer{}
	sink := &DiscordSink{
		session:   &fakeMessenger{err: errors.New("rate limited")},
		channelID: "chan-1",
		log:       zerolog.New(buf),
	}

	sink.Trigger("hello", SeverityInfo)
	if !strings.Contains(buf.String(), "rate limited") {
		t.Errorf("log output = %s", buf.String())
	}
}

type fakeSender struct {
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func TestTelegramSink(t *testing.T) {
	fake := &fakeSender{}
	sink := &TelegramSink{bot: fake, chatID: 42, log: zerolog.Nop()}

	sink.Trigger("Failed to delete 1 transaction(s)", SeverityError)

	if len(fake.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(fake.sent))
	}
	msg := fake.sent[0]
	if msg.ChatID != 42 || !strings.HasSuffix(msg.Text, "Failed to delete 1 transaction(s)") {
		t.Errorf("message = chat %d text %q", msg.ChatID, msg.Text)
	}
}
