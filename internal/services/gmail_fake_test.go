package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

type historyPage struct {
	ids       []string
	historyID uint64
}

// fakeGmail serves the handful of Gmail endpoints the sync uses.
type fakeGmail struct {
	mu sync.Mutex

	pages          []historyPage
	historyExpired bool
	listed         []string
	profileHistory uint64
	failing        map[string]int
	from, subject  string

	historyTokens []string
	fetched       []string
}

func (g *fakeGmail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	const base = "/gmail/v1/users/me/"
	path := strings.TrimPrefix(r.URL.Path, base)
	switch {
	case path == "history":
		if g.historyExpired {
			writeGmailError(w, http.StatusNotFound, "Requested entity was not found.")
			return
		}
		token := r.URL.Query().Get("pageToken")
		g.historyTokens = append(g.historyTokens, token)
		idx := 0
		if token != "" {
			idx, _ = strconv.Atoi(strings.TrimPrefix(token, "p"))
		}
		resp := gmail.ListHistoryResponse{}
		if idx < len(g.pages) {
			resp.HistoryId = g.pages[idx].historyID
			for _, id := range g.pages[idx].ids {
				resp.History = append(resp.History, &gmail.History{
					MessagesAdded: []*gmail.HistoryMessageAdded{{Message: &gmail.Message{Id: id}}},
				})
			}
		}
		if idx+1 < len(g.pages) {
			resp.NextPageToken = fmt.Sprintf("p%d", idx+1)
		}
		json.NewEncoder(w).Encode(resp)
	case path == "messages":
		resp := gmail.ListMessagesResponse{}
		for _, id := range g.listed {
			resp.Messages = append(resp.Messages, &gmail.Message{Id: id})
		}
		json.NewEncoder(w).Encode(resp)
	case strings.HasPrefix(path, "messages/"):
		id := strings.TrimPrefix(path, "messages/")
		g.fetched = append(g.fetched, id)
		if code, ok := g.failing[id]; ok {
			writeGmailError(w, code, "backend error")
			return
		}
		json.NewEncoder(w).Encode(&gmail.Message{
			Id: id,
			Payload: &gmail.MessagePart{
				Headers: []*gmail.MessagePartHeader{
					{Name: "From", Value: g.from},
					{Name: "Subject", Value: g.subject + " " + id},
				},
				Body: &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte("body of " + id))},
			},
		})
	case path == "profile":
		json.NewEncoder(w).Encode(&gmail.Profile{EmailAddress: "alice@x.com", HistoryId: g.profileHistory})
	default:
		http.NotFound(w, r)
	}
}

func writeGmailError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, code, msg)
}

func (g *fakeGmail) snapshot() (tokens, fetched []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.historyTokens...), append([]string(nil), g.fetched...)
}

func newGmailService(t *testing.T, g *fakeGmail) *gmail.Service {
	t.Helper()
	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)
	svc, err := gmail.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return svc
}

func messageIDs(msgs []*gmail.Message) []string {
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.Id
	}
	return ids
}
