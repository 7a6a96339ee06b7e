package notify

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestMailer_NotifyComment(t *testing.T) {
	s := &fakeSender{}
	m := NewMailerWithSender(s, "blog@example.com", "Example", []string{"a@example.com", "b@example.com"})

	err := m.NotifyComment(CommentNotice{
		TargetTitle: "Hello",
		TargetURL:   "/entries/2008/may/01/hello/",
		AuthorName:  "Reader",
		AuthorEmail: "reader@example.com",
		Body:        "Nice post",
		Held:        true,
	})
	require.NoError(t, err)
	require.Len(t, s.sent, 1)

	msg := s.sent[0]
	assert.Equal(t, []string{`[Example] New comment posted on "Hello"`}, msg.GetHeader("Subject"))
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, msg.GetHeader("To"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Nice post")
	assert.Contains(t, buf.String(), "waiting for moderation")
}

func TestMailer_NoManagers(t *testing.T) {
	s := &fakeSender{err: errors.New("must not be called")}
	m := NewMailerWithSender(s, "blog@example.com", "Example", nil)

	assert.NoError(t, m.NotifyComment(CommentNotice{TargetTitle: "Hello"}))
	assert.Empty(t, s.sent)
}

func TestMailer_SendError(t *testing.T) {
	s := &fakeSender{err: errors.New("connection refused")}
	m := NewMailerWithSender(s, "blog@example.com", "Example", []string{"a@example.com"})

	err := m.NotifyComment(CommentNotice{TargetTitle: "Hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
