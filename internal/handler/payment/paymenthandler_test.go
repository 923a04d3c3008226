package paymenthandler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koyif/billing/internal/domain"
	"github.com/koyif/billing/internal/handler/middleware"
)

type fakePayments struct {
	balance decimal.Decimal
	err     error
	courses map[string]domain.Course
	now     time.Time

	drainAfterDeposit decimal.Decimal
}

func (f *fakePayments) Deposit(_ context.Context, _ int64, amount decimal.Decimal) (*domain.Transaction, decimal.Decimal, error) {
	if f.err != nil {
		return nil, decimal.Zero, f.err
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, decimal.Zero, err
	}
	f.balance = f.balance.Add(amount)
	balance := f.balance
	// A concurrent payment lands after the commit; the response must still
	// report the balance this deposit produced.
	f.balance = f.balance.Sub(f.drainAfterDeposit)
	return &domain.Transaction{Type: domain.TransactionTypeDeposit, Amount: amount}, balance, nil
}

func (f *fakePayments) PayCourseByCode(_ context.Context, _ int64, code string) (*domain.Transaction, *domain.Course, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	c, ok := f.courses[code]
	if !ok {
		return nil, nil, domain.ErrCourseNotFound
	}
	if f.balance.LessThan(c.Price) {
		return nil, nil, domain.ErrInsufficientFunds
	}
	f.balance = f.balance.Sub(c.Price)
	t := &domain.Transaction{Type: domain.TransactionTypePayment, Amount: c.Price.Neg(), CreatedAt: f.now}
	if c.Type == domain.CourseTypeRent {
		exp := f.now.Add(30 * 24 * time.Hour)
		t.ExpiresAt = &exp
	}
	return t, &c, nil
}

func newRouter(f *fakePayments) http.Handler {
	h := New(f)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), 1)))
		})
	})
	r.Post("/deposit", h.Deposit)
	r.Post("/courses/{code}/pay", h.PayCourse)
	return r
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}

func TestDeposit(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{name: "number", body: `{"amount": 100}`, status: http.StatusOK, want: `{"success":true,"balance":"100.00"}`},
		{name: "string", body: `{"amount": "12.5"}`, status: http.StatusOK, want: `{"success":true,"balance":"12.50"}`},
		{name: "zero", body: `{"amount": 0}`, status: http.StatusBadRequest, want: `{"code":400,"message":"invalid amount"}`},
		{name: "negative", body: `{"amount": -5}`, status: http.StatusBadRequest, want: `{"code":400,"message":"invalid amount"}`},
		{name: "too precise", body: `{"amount": "1.001"}`, status: http.StatusBadRequest, want: `{"code":400,"message":"invalid amount"}`},
		{name: "missing", body: `{}`, status: http.StatusBadRequest, want: `{"code":400,"message":"invalid amount"}`},
		{name: "not a number", body: `{"amount": "ten"}`, status: http.StatusBadRequest, want: `{"code":400,"message":"invalid amount"}`},
		{name: "huge exponent", body: `{"amount": 1e1000000}`, status: http.StatusBadRequest, want: `{"code":400,"message":"invalid amount"}`},
		{name: "above maximum", body: `{"amount": "1000000000000000000"}`, status: http.StatusBadRequest, want: `{"code":400,"message":"invalid amount"}`},
		{name: "bad json", body: `{`, status: http.StatusBadRequest, want: `{"code":400,"message":"invalid amount"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(newRouter(&fakePayments{}), "/deposit", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestDeposit_ReportsOwnBalance(t *testing.T) {
	f := &fakePayments{balance: decimal.RequireFromString("10"), drainAfterDeposit: decimal.RequireFromString("5")}

	rec := post(newRouter(f), "/deposit", `{"amount": 20}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"balance":"30.00"}`, rec.Body.String())
	assert.Equal(t, "25.00", domain.FormatAmount(f.balance))
}

func TestPayCourse(t *testing.T) {
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	newFake := func(balance string) *fakePayments {
		return &fakePayments{
			balance: decimal.RequireFromString(balance),
			now:     now,
			courses: map[string]domain.Course{
				"MATH101": {ID: 1, Code: "MATH101", Type: domain.CourseTypeRent, Price: decimal.RequireFromString("100")},
				"PHYS202": {ID: 2, Code: "PHYS202", Type: domain.CourseTypeBuy, Price: decimal.RequireFromString("250")},
			},
		}
	}

	tests := []struct {
		name    string
		balance string
		code    string
		status  int
		want    string
	}{
		{name: "rent", balance: "100", code: "MATH101", status: http.StatusOK, want: `{"success":true,"course_type":"rent","expires_at":"2026-11-13T10:00:00+00:00"}`},
		{name: "buy", balance: "300", code: "PHYS202", status: http.StatusOK, want: `{"success":true,"course_type":"buy"}`},
		{name: "insufficient", balance: "99.99", code: "MATH101", status: http.StatusNotAcceptable, want: `{"code":406,"message":"insufficient funds"}`},
		{name: "unknown", balance: "1000", code: "NOPE", status: http.StatusNotFound, want: `{"code":404,"message":"course not found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(newRouter(newFake(tt.balance)), "/courses/"+tt.code+"/pay", "")
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestStorageFailure(t *testing.T) {
	f := &fakePayments{err: fmt.Errorf("%w: boom", domain.ErrStorage)}
	h := newRouter(f)

	rec := post(h, "/deposit", `{"amount": 1}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":500,"message":"Internal Server Error"}`, rec.Body.String())

	rec = post(h, "/courses/MATH101/pay", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUserGone(t *testing.T) {
	rec := post(newRouter(&fakePayments{err: domain.ErrUserNotFound}), "/deposit", `{"amount": 1}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
