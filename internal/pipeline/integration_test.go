package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/crimson-sun/slackline/internal/connector"
	"github.com/crimson-sun/slackline/internal/connector/file"
	"github.com/crimson-sun/slackline/internal/model"
	"github.com/crimson-sun/slackline/internal/output/webhook"
	"github.com/crimson-sun/slackline/internal/slack"
)

const clefInput = `{"@t":"2024-05-01T09:30:00.123Z","@mt":"Order {OrderId} failed","@l":"Error","OrderId":42,"Cart":{"Items":[{"Sku":"A1"}]}}
{"@t":"2024-05-01T09:30:01Z","@mt":"heartbeat","@l":"Debug"}
{"@t":"2024-05-01T09:30:02Z","@m":"disk almost full","@l":"Warning","@x":"System.IO.IOException: No space left\n   at Disk.Write()"}
`

func TestIntegration_FileToWebhook(t *testing.T) {
	var (
		mu   sync.Mutex
		msgs []slack.Message
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var m slack.Message
		if err := json.Unmarshal(body, &m); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		mu.Lock()
		msgs = append(msgs, m)
		mu.Unlock()
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	conn := &file.Connector{Stdin: strings.NewReader(clefInput)}
	p := New(conn, webhook.New(srv.URL), WithMinLevel(model.Information))
	if err := p.Stream(context.Background(), connector.ConnectorConfig{Path: "-"}); err != nil {
		t.Fatalf("stream: %v", err)
	}
	p.Close()

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages (debug filtered), got %d", len(msgs))
	}

	first := msgs[0]
	if first.Text != "Order 42 failed" {
		t.Errorf("Text = %q", first.Text)
	}
	var sawCart bool
	for _, f := range first.Attachments[0].Fields {
		if f.Title == "Cart" {
			sawCart = true
			if f.Value != ".Items[0].Sku::\"A1\"" {
				t.Errorf("Cart field = %q", f.Value)
			}
		}
	}
	if !sawCart {
		t.Error("expected a Cart section")
	}

	second := msgs[1]
	if len(second.Attachments) != 2 {
		t.Fatalf("expected exception attachment, got %d attachments", len(second.Attachments))
	}
	if second.Attachments[1].Title != "Exception" {
		t.Errorf("second attachment title = %q", second.Attachments[1].Title)
	}
}
