package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	c.Request = req

	return c, rec
}

// flashCookie returns the last flash Set-Cookie, which is the one a
// browser would keep.
func flashCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	var found *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == cookieName {
			found = ck
		}
	}
	return found
}

func TestSetThenPop(t *testing.T) {
	c, rec := newContext()

	Set(c, LevelSuccess, "You have successfully registered.")

	ck := flashCookie(rec)
	if ck == nil || ck.Value == "" {
		t.Fatal("Set did not write a flash cookie")
	}

	// next request carries the cookie back
	c2, rec2 := newContext(&http.Cookie{Name: cookieName, Value: ck.Value})

	msgs := Pop(c2)

	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Level != LevelSuccess || msgs[0].Text != "You have successfully registered." {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}

	cleared := flashCookie(rec2)
	if cleared == nil || cleared.MaxAge != -1 {
		t.Fatal("Pop did not clear the cookie")
	}
}

func TestSetTwiceInOneRequest(t *testing.T) {
	c, rec := newContext()

	Set(c, LevelSuccess, "account created")
	Set(c, LevelInfo, "confirmation email sent")

	ck := flashCookie(rec)
	if ck == nil {
		t.Fatal("no flash cookie written")
	}

	c2, _ := newContext(&http.Cookie{Name: cookieName, Value: ck.Value})
	msgs := Pop(c2)

	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2: %+v", len(msgs), msgs)
	}
	if msgs[0].Text != "account created" || msgs[1].Text != "confirmation email sent" {
		t.Fatalf("message order broken: %+v", msgs)
	}
}

func TestSetAppendsToPending(t *testing.T) {
	c, rec := newContext()

	Set(c, LevelInfo, "first")

	ck := flashCookie(rec)

	c2, rec2 := newContext(&http.Cookie{Name: cookieName, Value: ck.Value})
	Set(c2, LevelDanger, "second")

	ck2 := flashCookie(rec2)

	c3, _ := newContext(&http.Cookie{Name: cookieName, Value: ck2.Value})
	msgs := Pop(c3)

	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Text != "first" || msgs[1].Text != "second" {
		t.Fatalf("message order broken: %+v", msgs)
	}
}

func TestPopMalformedCookie(t *testing.T) {
	c, _ := newContext(&http.Cookie{Name: cookieName, Value: "not-base64-json-%"})

	if msgs := Pop(c); msgs != nil {
		t.Fatalf("malformed cookie produced messages: %+v", msgs)
	}
}

func TestPopWithoutCookie(t *testing.T) {
	c, rec := newContext()

	if msgs := Pop(c); msgs != nil {
		t.Fatalf("got messages with no cookie: %+v", msgs)
	}
	if flashCookie(rec) != nil {
		t.Fatal("Pop wrote a cookie when none was pending")
	}
}
