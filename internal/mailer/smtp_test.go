package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gomail "github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parsedMail struct {
	subject     string
	to          string
	body        string
	attachments map[string][]byte
}

func parse(t *testing.T, raw []byte) parsedMail {
	t.Helper()

	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	out := parsedMail{attachments: map[string][]byte{}}
	out.subject, err = mr.Header.Subject()
	require.NoError(t, err)
	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	out.to = to[0].Address

	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)

		data, err := io.ReadAll(p.Body)
		require.NoError(t, err)

		switch h := p.Header.(type) {
		case *gomail.InlineHeader:
			// quoted-printable bodies come back with CRLF line breaks
			out.body = strings.ReplaceAll(string(data), "\r\n", "\n")
		case *gomail.AttachmentHeader:
			name, err := h.Filename()
			require.NoError(t, err)
			out.attachments[name] = data
		}
	}
	return out
}

func TestCompose_PlainText(t *testing.T) {
	raw, err := Compose("site@example.com", Message{
		To:      "jan@example.com",
		Subject: "Kopie vašeho formuláře",
		Body:    "First name: Jan\nLast name: Novák",
	}, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	assert.Contains(t, string(raw), "Content-Type: text/plain")

	m := parse(t, raw)
	assert.Equal(t, "Kopie vašeho formuláře", m.subject)
	assert.Equal(t, "jan@example.com", m.to)
	assert.Equal(t, "First name: Jan\nLast name: Novák", m.body)
	assert.Empty(t, m.attachments)
}

func TestCompose_WithAttachment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	content := []byte("%PDF-1.4\n%test document\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	raw, err := Compose("site@example.com", Message{
		To:          "ops@example.com",
		Subject:     "New contact form submission",
		Body:        "hello",
		Attachments: []string{path},
	}, time.Now())
	require.NoError(t, err)

	assert.Contains(t, string(raw), "multipart/mixed")

	m := parse(t, raw)
	assert.Equal(t, "hello", m.body)
	assert.Equal(t, content, m.attachments["report.pdf"])
}

func TestCompose_Errors(t *testing.T) {
	_, err := Compose("not an address", Message{To: "jan@example.com"}, time.Now())
	assert.Error(t, err)

	_, err = Compose("site@example.com", Message{To: "nobody"}, time.Now())
	assert.Error(t, err)

	_, err = Compose("site@example.com", Message{To: "jan@example.com", Attachments: []string{"/does/not/exist"}}, time.Now())
	assert.Error(t, err)
}

func TestSMTPSender_Send(t *testing.T) {
	s := NewSMTPSender("smtp.example.com:587", "user", "pass", "site@example.com")

	var gotAddr, gotFrom string
	var gotTo []string
	var gotAuth sasl.Client
	var gotRaw []byte
	s.send = func(addr string, a sasl.Client, from string, to []string, r io.Reader) error {
		gotAddr, gotAuth, gotFrom, gotTo = addr, a, from, to
		gotRaw, _ = io.ReadAll(r)
		return nil
	}

	err := s.Send(context.Background(), Message{To: "jan@example.com", Subject: "Hi", Body: "Ahoj"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "site@example.com", gotFrom)
	assert.Equal(t, []string{"jan@example.com"}, gotTo)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "Ahoj", parse(t, gotRaw).body)
}

func TestSMTPSender_SendError(t *testing.T) {
	s := NewSMTPSender("smtp.example.com:25", "", "", "site@example.com")
	assert.Nil(t, s.auth)

	s.send = func(string, sasl.Client, string, []string, io.Reader) error {
		return errors.New("connection refused")
	}

	err := s.Send(context.Background(), Message{To: "jan@example.com", Subject: "Hi", Body: "Ahoj"})
	assert.ErrorContains(t, err, "connection refused")
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(nil)
	assert.NoError(t, s.Send(context.Background(), Message{To: "jan@example.com"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{To: "jan@example.com"}), context.Canceled)
}
