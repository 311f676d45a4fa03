package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/shareit-backend/pkg/errors"
)

type sampleBody struct {
	ItemID uuid.UUID  `json:"itemId" validate:"required"`
	Start  *time.Time `json:"start" validate:"required"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"itemId":"`+uuid.NewString()+`","start":"2026-07-01T10:00:00Z"}`))
	var body sampleBody
	if err := DecodeJSONBody(httptest.NewRecorder(), req, &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Start == nil || body.Start.Hour() != 10 {
		t.Fatalf("start not decoded: %v", body.Start)
	}
}

func TestDecodeJSONBodyRequiredFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	var body sampleBody
	err := DecodeJSONBody(httptest.NewRecorder(), req, &body)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok || details["itemId"] != "is required" || details["start"] != "is required" {
		t.Fatalf("unexpected details %v", pkgerrors.As(err).Details())
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"extra":1}`))
	var body sampleBody
	if err := DecodeJSONBody(httptest.NewRecorder(), req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyRejectsBadBookingPayloads(t *testing.T) {
	item := uuid.NewString()
	cases := map[string]struct {
		body    string
		message string
	}{
		"empty":       {body: "", message: "request body is empty"},
		"two objects": {body: `{"itemId":"` + item + `","start":"2026-07-01T10:00:00Z"}{}`, message: "request body must contain a single JSON object"},
		"bad time":    {body: `{"itemId":"` + item + `","start":"tomorrow"}`, message: "invalid request body"},
		"wrong type":  {body: `{"itemId":42}`, message: "invalid request body"},
		"broken json": {body: `{"itemId":`, message: "invalid request body"},
		"oversized":   {body: `{"itemId":"` + strings.Repeat("x", maxBodyBytes) + `"}`, message: "request body too large"},
	}
	for name, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(tc.body))
		var body sampleBody
		err := DecodeJSONBody(httptest.NewRecorder(), req, &body)
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
		if name != "broken json" && pkgerrors.As(err).Message() != tc.message {
			t.Fatalf("%s: expected %q, got %q", name, tc.message, pkgerrors.As(err).Message())
		}
	}
}

func TestValidationMessagesForBookingWindow(t *testing.T) {
	type window struct {
		ItemID string    `json:"itemId" validate:"uuid"`
		Start  time.Time `json:"start"`
		End    time.Time `json:"end" validate:"gtfield=Start"`
	}
	start := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	err := formatValidationErrors(validate.Struct(window{ItemID: "drill", Start: start, End: start}))
	details, ok := err.Details().(map[string]string)
	if !ok || details["itemId"] != "must be a UUID" || details["end"] != "must be after Start" {
		t.Fatalf("unexpected details %v", err.Details())
	}
}

func TestParseQueryBool(t *testing.T) {
	cases := map[string]struct {
		want bool
		ok   bool
	}{
		"?approved=true":  {want: true, ok: true},
		"?approved=FALSE": {want: false, ok: true},
		"?approved=maybe": {ok: false},
		"":                {ok: false},
	}
	for query, tc := range cases {
		req := httptest.NewRequest(http.MethodPatch, "/bookings/x"+query, nil)
		got, err := ParseQueryBool(req, "approved")
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: got %v, %v", query, got, err)
		}
		if !tc.ok && !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%q: expected validation error, got %v", query, err)
		}
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("bookingId", id.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := ParseUUIDParam(req, "bookingId")
	if err != nil || got != id {
		t.Fatalf("got %v, %v", got, err)
	}
	if _, err := ParseUUIDParam(req, "missing"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
