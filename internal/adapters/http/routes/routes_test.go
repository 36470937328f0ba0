package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"shg-finance/internal/adapters/http/middleware"
	"shg-finance/internal/adapters/persistence/memory"
	"shg-finance/internal/config"
	"shg-finance/internal/core/services"
	"shg-finance/internal/pkg/password"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	password.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
	Data    json.RawMessage   `json:"data"`
}

type api struct {
	t   *testing.T
	app *fiber.App
}

func newAPI(t *testing.T) *api {
	t.Helper()
	cfg := &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}

	repos := memory.NewRepositories()
	require.NoError(t, config.NewSeeder(repos, true).Run(context.Background()))
	svc := services.New(repos, cfg, nil, nil)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	Setup(app, svc, cfg, nil)
	return &api{t: t, app: app}
}

func (a *api) do(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

// ok asserts status and decodes data into out
func (a *api) ok(status int, method, path, token string, body, out interface{}) {
	a.t.Helper()
	code, env := a.do(method, path, token, body)
	require.Equal(a.t, status, code, "%s %s: %s %v", method, path, env.Error, env.Details)
	if out != nil {
		require.NoError(a.t, json.Unmarshal(env.Data, out))
	}
}

func (a *api) login(username, pass string) string {
	a.t.Helper()
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	a.ok(http.StatusOK, http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": pass}, &auth)
	require.NotEmpty(a.t, auth.AccessToken)
	return auth.AccessToken
}

type idOnly struct {
	ID uint `json:"id"`
}

// enroll registers a user and links it to an approved member with the given role
func (a *api) enroll(admin, username, role string, groupID uint, aadhaar string) (token string, memberID uint) {
	a.t.Helper()
	var registered struct {
		User idOnly `json:"user"`
	}
	a.ok(http.StatusCreated, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	}, &registered)

	var roles []struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
	a.ok(http.StatusOK, http.MethodGet, "/api/roles", admin, nil, &roles)
	var roleID uint
	for _, r := range roles {
		if r.Name == role {
			roleID = r.ID
		}
	}
	require.NotZero(a.t, roleID, role)

	var member idOnly
	a.ok(http.StatusCreated, http.MethodPost, "/api/members", admin, map[string]interface{}{
		"userId":  registered.User.ID,
		"groupId": groupID,
		"roleId":  roleID,
		"name":    strings.ToUpper(username[:1]) + username[1:],
		"aadhaar": aadhaar,
	}, &member)
	a.ok(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/members/%d/approve", member.ID), admin, nil, nil)

	return a.login(username, "password123"), member.ID
}

func (a *api) demoGroup(admin string) uint {
	a.t.Helper()
	var groups []idOnly
	a.ok(http.StatusOK, http.MethodGet, "/api/groups", admin, nil, &groups)
	require.NotEmpty(a.t, groups)
	return groups[0].ID
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	var health struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "disabled", health.Checks["cache"])

	resp, err = a.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	a := newAPI(t)

	for _, path := range []string{"/api/loans", "/api/savings", "/api/groups", "/api/dashboard/me", "/api/auth/me"} {
		code, env := a.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.False(t, env.Success)
	}

	code, _ := a.do(http.MethodGet, "/api/loans", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "demo_admin", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLoanLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	admin := a.login(config.DemoAdminUsername, config.DemoAdminPassword)
	groupID := a.demoGroup(admin)

	asha, ashaID := a.enroll(admin, "asha", "MEMBER", groupID, "111122223333")
	treasurer, _ := a.enroll(admin, "kavya", "TREASURER", groupID, "444455556666")
	president, _ := a.enroll(admin, "sunita", "PRESIDENT", groupID, "565656565656")

	var me struct {
		Roles []string `json:"roles"`
	}
	a.ok(http.StatusOK, http.MethodGet, "/api/auth/me", asha, nil, &me)
	assert.Contains(t, me.Roles, "MEMBER")

	a.ok(http.StatusCreated, http.MethodPost, "/api/savings", asha, map[string]interface{}{"memberId": ashaID, "amount": "1000"}, nil)
	a.ok(http.StatusCreated, http.MethodPost, "/api/savings", asha, map[string]interface{}{"memberId": ashaID, "amount": 500}, nil)

	var summary struct {
		TotalDeposited string `json:"totalDeposited"`
	}
	a.ok(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/savings/summary/%d", groupID), admin, nil, &summary)
	assert.Equal(t, "1500", summary.TotalDeposited)

	var loan struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
		EMI    string `json:"emi"`
	}
	a.ok(http.StatusCreated, http.MethodPost, "/api/loans", asha, map[string]interface{}{
		"amount":        "25000",
		"purpose":       "business",
		"tenure":        12,
		"monthlyIncome": "10000",
	}, &loan)
	assert.Equal(t, "PENDING", loan.Status)
	assert.Equal(t, "2221", loan.EMI)

	// a member cannot approve, even their own application
	code, _ := a.do(http.MethodPost, fmt.Sprintf("/api/loans/%d/approve", loan.ID), asha, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// cannot disburse before approval
	code, _ = a.do(http.MethodPost, fmt.Sprintf("/api/loans/%d/disburse", loan.ID), treasurer, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = a.do(http.MethodPost, fmt.Sprintf("/api/loans/%d/approve", loan.ID), treasurer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	a.ok(http.StatusOK, http.MethodPost, fmt.Sprintf("/api/loans/%d/approve", loan.ID), president, map[string]string{"remarks": "good record"}, &loan)
	assert.Equal(t, "APPROVED", loan.Status)
	a.ok(http.StatusOK, http.MethodPost, fmt.Sprintf("/api/loans/%d/disburse", loan.ID), treasurer, nil, &loan)
	assert.Equal(t, "DISBURSED", loan.Status)

	code, env := a.do(http.MethodPost, fmt.Sprintf("/api/loans/%d/repay", loan.ID), asha, map[string]string{"amount": "30000"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Details, "amount")

	var repaid struct {
		Loan struct {
			Status      string `json:"status"`
			Outstanding string `json:"outstanding"`
		} `json:"loan"`
	}
	a.ok(http.StatusCreated, http.MethodPost, fmt.Sprintf("/api/loans/%d/repay", loan.ID), asha, map[string]string{"amount": "20000"}, &repaid)
	assert.Equal(t, "DISBURSED", repaid.Loan.Status)
	assert.Equal(t, "5000", repaid.Loan.Outstanding)
	a.ok(http.StatusCreated, http.MethodPost, fmt.Sprintf("/api/loans/%d/repay", loan.ID), treasurer, map[string]string{"amount": "5000"}, &repaid)
	assert.Equal(t, "REPAID", repaid.Loan.Status)

	var logs []struct {
		Action string `json:"action"`
	}
	a.ok(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/loans/%d/logs", loan.ID), asha, nil, &logs)
	assert.Len(t, logs, 5)

	var quote struct {
		EMI string `json:"emi"`
	}
	a.ok(http.StatusOK, http.MethodGet, "/api/loans/emi?amount=100000&tenure=24", asha, nil, &quote)
	assert.Equal(t, "4707", quote.EMI)

	code, env = a.do(http.MethodGet, "/api/loans/emi?amount=abc&tenure=12", asha, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Details, "amount")
}

func TestValidationAndNotFound(t *testing.T) {
	a := newAPI(t)
	admin := a.login(config.DemoAdminUsername, config.DemoAdminPassword)

	code, env := a.do(http.MethodPost, "/api/loans", admin, map[string]interface{}{"memberId": 1, "amount": "50", "purpose": "", "tenure": 7})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Details, "amount")
	assert.Contains(t, env.Details, "tenure")
	assert.Contains(t, env.Details, "purpose")

	code, _ = a.do(http.MethodGet, "/api/loans/999", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = a.do(http.MethodGet, "/api/loans/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Details, "id")

	code, env = a.do(http.MethodGet, "/api/savings?from=2024-13-01", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Details, "from")

	code, _ = a.do(http.MethodGet, "/api/savings/export?format=xlsx", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "demo_admin", "email": "x@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestSavingsExportOverHTTP(t *testing.T) {
	a := newAPI(t)
	admin := a.login(config.DemoAdminUsername, config.DemoAdminPassword)
	groupID := a.demoGroup(admin)
	_, memberID := a.enroll(admin, "meena", "MEMBER", groupID, "777788889999")

	a.ok(http.StatusCreated, http.MethodPost, "/api/savings", admin, map[string]interface{}{"memberId": memberID, "amount": "750"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/savings/export?format=csv", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "750.00")
}

func TestPollVotingOverHTTP(t *testing.T) {
	a := newAPI(t)
	admin := a.login(config.DemoAdminUsername, config.DemoAdminPassword)
	groupID := a.demoGroup(admin)
	president, _ := a.enroll(admin, "lakshmi", "PRESIDENT", groupID, "121212121212")
	voter, _ := a.enroll(admin, "radha", "MEMBER", groupID, "343434343434")

	code, _ := a.do(http.MethodPost, "/api/polls", voter, map[string]interface{}{"groupId": groupID, "title": "x"})
	assert.Equal(t, http.StatusForbidden, code)

	var poll idOnly
	a.ok(http.StatusCreated, http.MethodPost, "/api/polls", president, map[string]interface{}{
		"groupId": groupID,
		"title":   "Monthly saving amount",
		"options": []map[string]string{{"value": "500", "label": "500"}, {"value": "1000", "label": "1000"}},
	}, &poll)

	a.ok(http.StatusOK, http.MethodPost, fmt.Sprintf("/api/polls/%d/vote", poll.ID), voter, map[string]string{"selectedOption": "1000"}, nil)
	code, _ = a.do(http.MethodPost, fmt.Sprintf("/api/polls/%d/vote", poll.ID), voter, map[string]string{"selectedOption": "500"})
	assert.Equal(t, http.StatusConflict, code)

	var tally struct {
		TotalVotes int `json:"totalVotes"`
	}
	a.ok(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/polls/%d/tally", poll.ID), president, nil, &tally)
	assert.Equal(t, 1, tally.TotalVotes)

	code, _ = a.do(http.MethodPut, fmt.Sprintf("/api/polls/%d", poll.ID), president, map[string]bool{"isActive": true})
	assert.Equal(t, http.StatusBadRequest, code)
	a.ok(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/polls/%d", poll.ID), president, map[string]bool{"isActive": false}, nil)
	code, _ = a.do(http.MethodPut, fmt.Sprintf("/api/polls/%d", poll.ID), president, map[string]bool{"isActive": false})
	assert.Equal(t, http.StatusConflict, code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	a := newAPI(t)

	var auth struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	a.ok(http.StatusOK, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": config.DemoAdminUsername,
		"password": config.DemoAdminPassword,
	}, &auth)

	a.ok(http.StatusOK, http.MethodPost, "/api/auth/logout", auth.AccessToken, map[string]string{"refresh_token": auth.RefreshToken}, nil)

	code, _ := a.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": auth.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)
}
