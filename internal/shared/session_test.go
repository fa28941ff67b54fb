package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newSessionFixture(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "praxis_session", "secret", time.Hour, false), mr
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := newSessionFixture(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess.Subject() != "" {
		t.Fatal("fresh session should be anonymous")
	}

	sess.SetSubject("u1", "firm-1", []string{"case-1", "case-2"})
	sess.Set("theme", "dark")

	rec := httptest.NewRecorder()
	if err := sm.Commit(ctx, rec, req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "praxis_session" {
		t.Fatalf("unexpected cookies: %v", cookies)
	}

	// A follow-up request with the cookie restores the subject state.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookies[0])
	restored, err := sm.Load(ctx, req2)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if restored.Subject() != "u1" || restored.LawFirm() != "firm-1" {
		t.Fatalf("subject state lost: %s %s", restored.Subject(), restored.LawFirm())
	}
	if ids := restored.CaseIDs(); len(ids) != 2 || ids[1] != "case-2" {
		t.Fatalf("case ids lost: %v", ids)
	}
	if restored.Get("theme") != "dark" {
		t.Fatal("session values lost")
	}
}

func TestSessionCaseIDsAreCopied(t *testing.T) {
	sess := &Session{}
	input := []string{"case-1"}
	sess.SetSubject("u1", "firm-1", input)
	input[0] = "case-9"
	if sess.CaseIDs()[0] != "case-1" {
		t.Fatal("session must hold its own copy of case ids")
	}
	out := sess.CaseIDs()
	out[0] = "case-9"
	if sess.CaseIDs()[0] != "case-1" {
		t.Fatal("returned slice must be a copy")
	}
}

func TestSessionDestroy(t *testing.T) {
	sm, mr := newSessionFixture(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.SetSubject("u1", "firm-1", nil)

	rec := httptest.NewRecorder()
	if err := sm.Commit(ctx, rec, req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !mr.Exists("session:" + sess.ID) {
		t.Fatal("session should persist in redis")
	}

	sm.Destroy(sess)
	rec = httptest.NewRecorder()
	if err := sm.Commit(ctx, rec, req, sess); err != nil {
		t.Fatalf("commit destroy: %v", err)
	}
	if mr.Exists("session:" + sess.ID) {
		t.Fatal("destroyed session should be removed from redis")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected expiring cookie, got %v", cookies)
	}
}
