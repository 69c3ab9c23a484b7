package email_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/willemschots/emailauth/internal/email"
)

func Test_Service_SendMessage(t *testing.T) {
	from := email.Address("noreply@example.com")
	to := email.Address("alice@example.com")

	t.Run("ok, renders and sends", func(t *testing.T) {
		sender := email.NewMemorySender()
		svc := email.NewService(&fakeRenderer{}, sender, email.ServiceConfig{From: from})

		err := svc.SendMessage(context.Background(), "verify-email", to, "abc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []email.Message{{
			From:      from,
			Recipient: to,
			Subject:   "verify-email subject abc",
			Body:      "verify-email body abc",
		}}

		got := sender.Emails()
		if len(got) != 1 || got[0] != want[0] {
			t.Fatalf("got\n%+v\nwant\n%+v", got, want)
		}
	})

	t.Run("fail, renderer fails", func(t *testing.T) {
		renderErr := errors.New("render failed")
		sender := email.NewMemorySender()
		svc := email.NewService(&fakeRenderer{err: renderErr}, sender, email.ServiceConfig{From: from})

		err := svc.SendMessage(context.Background(), "verify-email", to, nil)
		if !errors.Is(err, renderErr) {
			t.Fatalf("got %v, want %v (via errors.Is)", err, renderErr)
		}

		if len(sender.Emails()) != 0 {
			t.Fatalf("expected no emails to be sent")
		}
	})

	t.Run("fail, sender fails", func(t *testing.T) {
		sendErr := errors.New("send failed")
		svc := email.NewService(&fakeRenderer{}, &fakeSender{err: sendErr}, email.ServiceConfig{From: from})

		err := svc.SendMessage(context.Background(), "verify-email", to, nil)
		if !errors.Is(err, sendErr) {
			t.Fatalf("got %v, want %v (via errors.Is)", err, sendErr)
		}
	})
}

type fakeRenderer struct {
	err error
}

func (r *fakeRenderer) Render(w io.Writer, name string, element email.TemplateElement, data any) error {
	if r.err != nil {
		return r.err
	}
	_, err := fmt.Fprintf(w, "  %s %s %v\n", name, element, data)
	return err
}

type fakeSender struct {
	err error
}

func (s *fakeSender) Send(_ context.Context, _, _ email.Address, _, _ string) error {
	return s.err
}
