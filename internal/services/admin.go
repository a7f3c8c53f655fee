package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dhunjam/internal/models"
	"github.com/desertthunder/dhunjam/internal/shared"
)

var _ AdminAPI = (*AdminService)(nil)

// AdminService implements [AdminAPI] over [APIService].
type AdminService struct {
	api    *APIService
	logger *log.Logger
}

// NewAdminService creates an AdminService. A nil logger falls back to [shared.NewLogger].
func NewAdminService(api *APIService, logger *log.Logger) *AdminService {
	if api == nil {
		api = NewAPIService("", nil)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AdminService{api: api, logger: logger}
}

// Login implements [AdminAPI].
func (s *AdminService) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}

	s.logger.Debug("logging in", "username", creds.Username)
	resp, err := s.api.Post(ctx, "/admin/login", body)

	var session models.Session
	if err := decodeEnvelope("login", resp, err, &session); err != nil {
		return nil, err
	}
	if !session.Valid() {
		return nil, &APIError{Op: "login", StatusCode: resp.StatusCode, BodyStatus: http.StatusOK,
			Err: fmt.Errorf("%w: response has no token", shared.ErrUnexpectedResponse)}
	}

	session.Username = creds.Username
	return &session, nil
}

// GetAdmin implements [AdminAPI].
func (s *AdminService) GetAdmin(ctx context.Context, session models.Session) (*models.AdminSettings, error) {
	path := fmt.Sprintf("/admin/%d", session.AdminID)
	s.logger.Debug("fetching admin", "admin_id", session.AdminID)

	resp, err := s.api.WithToken(session.Token).Get(ctx, path)

	var settings models.AdminSettings
	if err := decodeEnvelope("get", resp, err, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateAmounts implements [AdminAPI].
func (s *AdminService) UpdateAmounts(ctx context.Context, session models.Session, amounts models.Amounts) error {
	body, err := json.Marshal(models.AmountsUpdate{Amounts: amounts})
	if err != nil {
		return fmt.Errorf("failed to marshal amounts: %w", err)
	}

	path := fmt.Sprintf("/admin/%d", session.AdminID)
	s.logger.Debug("updating amounts", "admin_id", session.AdminID, "amounts", amounts.Series())

	resp, err := s.api.WithToken(session.Token).Put(ctx, path, body)
	return decodeEnvelope("update", resp, err, nil)
}

// decodeEnvelope checks a {status, data} response and decodes data into out when out is non-nil.
//
// Success requires a 2xx HTTP status, a JSON body, and a body status of 200.
func decodeEnvelope(op string, resp *APIResponse, reqErr error, out any) error {
	if reqErr != nil {
		return &APIError{Op: op, Err: reqErr}
	}

	if !resp.OK() {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: userMessage(resp.Body)}
	}

	if !resp.IsJSON {
		return &APIError{Op: op, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("%w: body is not JSON", shared.ErrUnexpectedResponse)}
	}

	status := int(resp.JSON.Get("status").Int())
	if status != http.StatusOK {
		return &APIError{Op: op, StatusCode: resp.StatusCode, BodyStatus: status, Message: userMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}

	data := resp.JSON.Get("data")
	if !data.Exists() {
		return &APIError{Op: op, StatusCode: resp.StatusCode, BodyStatus: status,
			Err: fmt.Errorf("%w: missing data", shared.ErrUnexpectedResponse)}
	}
	if err := json.Unmarshal([]byte(data.Raw), out); err != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, BodyStatus: status,
			Err: fmt.Errorf("%w: %v", shared.ErrUnexpectedResponse, err)}
	}
	return nil
}
