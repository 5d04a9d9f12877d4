package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"coursemart/internal/model"
	"coursemart/internal/pricing"

	"github.com/rs/zerolog"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	sent []*emailMessage
}

func (c *captureSender) send(_ context.Context, msg *emailMessage) error {
	c.sent = append(c.sent, msg)
	return nil
}

func TestSendReceiptRendersOrder(t *testing.T) {
	sender := &captureSender{}
	svc := &emailService{sender: sender, prices: pricing.Default(), logger: zerolog.Nop()}
	o := &model.Order{
		GatewayReference: "CM-42",
		Currency:         "USD",
		Amount:           10000,
		Fee:              320,
		Total:            10320,
		Items:            []model.OrderItem{{Title: "Go <Basics>"}, {Title: "SQL"}},
	}

	require.NoError(t, svc.SendReceipt(context.Background(), &model.User{Name: "Ada", Email: "ada@example.com"}, o))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "ada@example.com", msg.ToAddr)
	assert.Equal(t, "Your receipt for order CM-42", msg.Subject)
	assert.Contains(t, msg.HTML, "Go &lt;Basics&gt;")
	assert.Contains(t, msg.HTML, "$103.20")
	assert.Contains(t, msg.Text, "- SQL")
}

func TestSendCertificateOmitsMissingLink(t *testing.T) {
	sender := &captureSender{}
	svc := &emailService{sender: sender, prices: pricing.Default(), logger: zerolog.Nop()}
	c := &model.Certificate{CourseTitle: "Intro to Go", CertificateNumber: "CM-20260101-abcd1234"}

	require.NoError(t, svc.SendCertificate(context.Background(), &model.User{Name: "Ada", Email: "ada@example.com"}, c, ""))
	require.NoError(t, svc.SendCertificate(context.Background(), &model.User{Name: "Ada", Email: "ada@example.com"}, c, "https://files.example/c.html"))

	assert.NotContains(t, sender.sent[0].HTML, "Download")
	assert.Contains(t, sender.sent[1].HTML, `href="https://files.example/c.html"`)
	assert.Contains(t, sender.sent[1].Text, "Download: https://files.example/c.html")
}

func TestSendgridSender(t *testing.T) {
	var (
		gotAuth string
		gotPath string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := &sendgridSender{key: "SG.test", host: srv.URL, from: sgmail.NewEmail("CourseMart", "no-reply@coursemart.example"), subjPrefix: "[CourseMart] "}
	err := s.send(context.Background(), &emailMessage{ToName: "Ada", ToAddr: "ada@example.com", Subject: "Hello", Text: "hi", HTML: "<p>hi</p>"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer SG.test", gotAuth)
	assert.Equal(t, sendgridEndpoint, gotPath)
	personalizations := gotBody["personalizations"].([]any)
	require.Len(t, personalizations, 1)
	assert.Equal(t, "[CourseMart] Hello", personalizations[0].(map[string]any)["subject"])

	err = s.send(context.Background(), &emailMessage{Subject: "No recipient"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSendgridSenderRejectedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	s := &sendgridSender{key: "SG.bad", host: srv.URL, from: sgmail.NewEmail("CourseMart", "no-reply@coursemart.example")}
	err := s.send(context.Background(), &emailMessage{ToAddr: "ada@example.com", Subject: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
