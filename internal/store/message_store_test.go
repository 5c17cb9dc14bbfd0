package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ragworks/ragchat/internal/postgres"
)

func messageRow(sessionID uuid.UUID, sender, content string, contextBlob *string) postgres.Message {
	return postgres.Message{
		ID:        uuidToPgUUID(uuid.New()),
		SessionID: uuidToPgUUID(sessionID),
		Sender:    sender,
		Content:   content,
		Context:   contextBlob,
		CreatedAt: timestamptz(time.Now()),
	}
}

func TestMessageStore_Append(t *testing.T) {
	sessionID := uuid.New()

	tests := []struct {
		name      string
		sender    string
		content   string
		wantField string
	}{
		{name: "blank sender rejected", sender: " ", content: "hi", wantField: "sender"},
		{name: "blank content rejected", sender: "user", content: "", wantField: "content"},
		{name: "overlong sender rejected", sender: strings.Repeat("s", MaxSenderLength+1), content: "hi", wantField: "sender"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			querier := &mockQuerier{}
			s := NewMessageStore(querier, nil, nil)

			_, err := s.Append(context.Background(), sessionID, tt.sender, tt.content, nil)

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Append() error = %v, want *ValidationError", err)
			}
			if _, ok := vErr.Fields[tt.wantField]; !ok {
				t.Errorf("ValidationError.Fields = %v, want key %q", vErr.Fields, tt.wantField)
			}
			if querier.insertMessageCalls != 0 {
				t.Error("Append() inserted despite invalid input")
			}
		})
	}

	t.Run("missing session maps to ErrSessionNotFound", func(t *testing.T) {
		querier := &mockQuerier{getSessionErr: pgx.ErrNoRows}
		s := NewMessageStore(querier, nil, nil)

		_, err := s.Append(context.Background(), sessionID, "user", "hi", nil)
		if !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("Append() error = %v, want ErrSessionNotFound", err)
		}
		if querier.insertMessageCalls != 0 {
			t.Error("Append() inserted into a missing session")
		}
	})

	t.Run("append inserts and touches the session", func(t *testing.T) {
		ctxBlob := `{"chunks":[]}`
		querier := &mockQuerier{
			getSessionResult:    sessionRow(sessionID, "u1", "Demo"),
			insertMessageResult: messageRow(sessionID, "assistant", "hello", &ctxBlob),
		}
		s := NewMessageStore(querier, nil, nil)

		msg, err := s.Append(context.Background(), sessionID, "assistant", "hello", &ctxBlob)
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if querier.lastInsertParams.Sender != "assistant" || querier.lastInsertParams.Content != "hello" {
			t.Errorf("insert params = %+v, want sender assistant content hello", querier.lastInsertParams)
		}
		if querier.lastInsertParams.Context == nil || *querier.lastInsertParams.Context != ctxBlob {
			t.Error("context blob not passed to insert")
		}
		if querier.touchSessionCalls != 1 {
			t.Errorf("touch calls = %d, want 1", querier.touchSessionCalls)
		}
		if msg.SessionID != sessionID {
			t.Errorf("message.SessionID = %v, want %v", msg.SessionID, sessionID)
		}
		if msg.Context == nil || *msg.Context != ctxBlob {
			t.Error("message context blob missing")
		}
	})
}

func TestMessageStore_ListPage(t *testing.T) {
	sessionID := uuid.New()

	t.Run("invalid paging rejected without queries", func(t *testing.T) {
		tests := []struct {
			name      string
			page      int
			size      int
			wantField string
		}{
			{name: "negative page", page: -1, size: 20, wantField: "page"},
			{name: "page beyond maximum", page: MaxPageIndex + 1, size: 20, wantField: "page"},
			{name: "zero size", page: 0, size: 0, wantField: "size"},
			{name: "negative size", page: 0, size: -5, wantField: "size"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				querier := &mockQuerier{}
				s := NewMessageStore(querier, nil, nil)

				_, err := s.ListPage(context.Background(), sessionID, tt.page, tt.size)

				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("ListPage() error = %v, want *ValidationError", err)
				}
				if _, ok := vErr.Fields[tt.wantField]; !ok {
					t.Errorf("ValidationError.Fields = %v, want key %q", vErr.Fields, tt.wantField)
				}
				if querier.listMessagesCalls != 0 {
					t.Error("ListPage() queried despite invalid paging")
				}
			})
		}
	})

	t.Run("missing session maps to ErrSessionNotFound", func(t *testing.T) {
		querier := &mockQuerier{getSessionErr: pgx.ErrNoRows}
		s := NewMessageStore(querier, nil, nil)

		_, err := s.ListPage(context.Background(), sessionID, 0, 20)
		if !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("ListPage() error = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("oversized page size is clamped", func(t *testing.T) {
		querier := &mockQuerier{getSessionResult: sessionRow(sessionID, "u1", "Demo")}
		s := NewMessageStore(querier, nil, nil)

		page, err := s.ListPage(context.Background(), sessionID, 2, MaxPageSize*10)
		if err != nil {
			t.Fatalf("ListPage() error = %v", err)
		}
		if page.Size != MaxPageSize {
			t.Errorf("page.Size = %d, want %d", page.Size, MaxPageSize)
		}
		if got := querier.lastListMessagesParams.Limit; got != MaxPageSize {
			t.Errorf("query limit = %d, want %d", got, MaxPageSize)
		}
		if got := querier.lastListMessagesParams.Offset; got != 2*MaxPageSize {
			t.Errorf("query offset = %d, want %d", got, 2*MaxPageSize)
		}
	})

	t.Run("page metadata rounds total pages up", func(t *testing.T) {
		querier := &mockQuerier{
			getSessionResult:    sessionRow(sessionID, "u1", "Demo"),
			countMessagesResult: 45,
			listMessagesResult: []postgres.Message{
				messageRow(sessionID, "user", "first", nil),
				messageRow(sessionID, "assistant", "second", nil),
			},
		}
		s := NewMessageStore(querier, nil, nil)

		page, err := s.ListPage(context.Background(), sessionID, 1, 20)
		if err != nil {
			t.Fatalf("ListPage() error = %v", err)
		}
		if page.TotalCount != 45 {
			t.Errorf("page.TotalCount = %d, want 45", page.TotalCount)
		}
		if page.TotalPages != 3 {
			t.Errorf("page.TotalPages = %d, want 3", page.TotalPages)
		}
		if page.Page != 1 {
			t.Errorf("page.Page = %d, want 1", page.Page)
		}
		if len(page.Messages) != 2 {
			t.Fatalf("page.Messages length = %d, want 2", len(page.Messages))
		}
		if page.Messages[0].Content != "first" || page.Messages[1].Content != "second" {
			t.Error("messages returned out of order")
		}
	})

	t.Run("empty session yields zero pages", func(t *testing.T) {
		querier := &mockQuerier{getSessionResult: sessionRow(sessionID, "u1", "Demo")}
		s := NewMessageStore(querier, nil, nil)

		page, err := s.ListPage(context.Background(), sessionID, 0, 20)
		if err != nil {
			t.Fatalf("ListPage() error = %v", err)
		}
		if page.TotalCount != 0 || page.TotalPages != 0 {
			t.Errorf("empty session totals = %d/%d, want 0/0", page.TotalCount, page.TotalPages)
		}
		if len(page.Messages) != 0 {
			t.Errorf("page.Messages length = %d, want 0", len(page.Messages))
		}
	})
}
