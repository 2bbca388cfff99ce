package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bookline-api/core/constants"
	"bookline-api/core/errors"
	"bookline-api/core/logger"
	"bookline-api/core/utils"
	"bookline-api/modules/calendar/dto"
	"bookline-api/modules/calendar/entity"
	"bookline-api/modules/calendar/repository"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
)

const (
	googleCalendarScope = "https://www.googleapis.com/auth/calendar"
	googleTokenURL      = "https://oauth2.googleapis.com/token"
	googleUserinfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type OAuthService interface {
	GetAuthURL(ctx context.Context, userID uuid.UUID, redirectURI string) (string, error)
	ExchangeCode(ctx context.Context, userID uuid.UUID, code, redirectURI, state string, professionalID *uuid.UUID) error
	RefreshToken(ctx context.Context, userID uuid.UUID) (string, error)
	ListIntegrations(ctx context.Context, userID uuid.UUID) ([]dto.IntegrationResponse, error)
	Disconnect(ctx context.Context, userID uuid.UUID, provider string) error
}

type oauthService struct {
	repo         repository.CalendarRepository
	clientID     string
	clientSecret string

	// Overridable in tests.
	endpoint    oauth2.Endpoint
	tokenURL    string
	userinfoURL string
	httpClient  *http.Client

	refreshGroup singleflight.Group
}

func NewOAuthService(repo repository.CalendarRepository, clientID, clientSecret string) OAuthService {
	return &oauthService{
		repo:         repo,
		clientID:     clientID,
		clientSecret: clientSecret,
		endpoint:     google.Endpoint,
		tokenURL:     googleTokenURL,
		userinfoURL:  googleUserinfoURL,
		httpClient:   &http.Client{Timeout: constants.DefaultTimeout},
	}
}

func (s *oauthService) config(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{googleCalendarScope},
		Endpoint:     s.endpoint,
	}
}

// GetAuthURL builds the provider consent URL. Offline access plus forced
// consent guarantees a refresh token on every exchange. The state value is
// persisted so the callback can be tied back to this user exactly once.
func (s *oauthService) GetAuthURL(ctx context.Context, userID uuid.UUID, redirectURI string) (string, error) {
	if s.clientID == "" || s.clientSecret == "" {
		return "", errors.NewAppError(errors.ErrInternalServer, "Google OAuth is not configured", nil)
	}

	state := constants.OAuthStatePrefix + utils.GenerateRandomString(32)
	expiresAt := time.Now().Add(constants.OAuthStateTTL)
	if err := s.repo.SaveOAuthState(ctx, state, userID, expiresAt); err != nil {
		logger.Error("OAuth:GetAuthURL:SaveState:Error", "error", err)
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to persist OAuth state", err)
	}

	authURL := s.config(redirectURI).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	return authURL, nil
}

// ExchangeCode swaps an authorization code for a token pair and stores it
// keyed by the authenticated caller. Identifiers supplied in the request body
// never select the storage key.
func (s *oauthService) ExchangeCode(ctx context.Context, userID uuid.UUID, code, redirectURI, state string, professionalID *uuid.UUID) error {
	if state != "" {
		st, err := s.repo.ConsumeOAuthState(ctx, state)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "Failed to validate OAuth state", err)
		}
		if st == nil || st.UserID != userID {
			return errors.NewAppError(errors.ErrInvalidInput, "Invalid or expired OAuth state", nil)
		}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := s.config(redirectURI).Exchange(ctx, code)
	if err != nil {
		logger.Error("OAuth:ExchangeCode:Error", "error", err, "user_id", userID)
		return errors.NewAppError(errors.ErrProvider, fmt.Sprintf("Failed to exchange authorization code: %v", err), err)
	}

	email := s.fetchCalendarEmail(ctx, token.AccessToken)

	integration := &entity.CalendarIntegration{
		UserID:         userID,
		ProfessionalID: professionalID,
		Provider:       constants.ProviderGoogle,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenExpiresAt: token.Expiry,
		CalendarEmail:  email,
	}
	if _, err := s.repo.Upsert(ctx, integration); err != nil {
		logger.Error("OAuth:ExchangeCode:Persist:Error", "error", err, "user_id", userID)
		return errors.NewAppError(errors.ErrInternalServer, "Failed to store calendar credentials", err)
	}

	logger.Info("OAuth:ExchangeCode:Connected", "user_id", userID, "provider", constants.ProviderGoogle)
	return nil
}

// RefreshToken exchanges the stored refresh token for a fresh access token
// and persists the new expiry. Concurrent refreshes for the same user are
// collapsed into a single provider call.
func (s *oauthService) RefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	key := userID.String() + ":" + constants.ProviderGoogle

	result, err, _ := s.refreshGroup.Do(key, func() (any, error) {
		return s.refreshToken(ctx, userID)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (s *oauthService) refreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	integration, err := s.repo.GetByUserAndProvider(ctx, userID, constants.ProviderGoogle)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to load calendar integration", err)
	}
	if integration == nil || integration.RefreshToken == "" {
		return "", errors.NewAppError(errors.ErrNotFound, "No Google Calendar integration found", nil)
	}

	form := url.Values{
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
		"refresh_token": {integration.RefreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to build refresh request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", errors.NewAppError(errors.ErrTokenRefresh, fmt.Sprintf("Token refresh request failed: %v", err), err)
	}
	defer resp.Body.Close()

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error"`
		ErrorDesc   string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", errors.NewAppError(errors.ErrTokenRefresh, "Failed to decode token refresh response", err)
	}
	if resp.StatusCode != http.StatusOK || tokenResp.AccessToken == "" {
		msg := tokenResp.ErrorDesc
		if msg == "" {
			msg = tokenResp.Error
		}
		logger.Error("OAuth:RefreshToken:Rejected", "status", resp.StatusCode, "error", msg, "user_id", userID)
		return "", errors.NewAppError(errors.ErrTokenRefresh, fmt.Sprintf("Provider rejected token refresh: %s", msg), nil)
	}

	expiresAt := time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	if err := s.repo.UpdateTokens(ctx, userID, constants.ProviderGoogle, tokenResp.AccessToken, integration.RefreshToken, expiresAt); err != nil {
		logger.Error("OAuth:RefreshToken:Persist:Error", "error", err, "user_id", userID)
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to store refreshed token", err)
	}

	logger.Debug("OAuth:RefreshToken:Refreshed", "user_id", userID, "expires_at", expiresAt)
	return tokenResp.AccessToken, nil
}

// ListIntegrations returns the dashboard view of a user's connected calendars.
func (s *oauthService) ListIntegrations(ctx context.Context, userID uuid.UUID) ([]dto.IntegrationResponse, error) {
	integrations, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list calendar integrations", err)
	}

	result := make([]dto.IntegrationResponse, 0, len(integrations))
	for _, integration := range integrations {
		result = append(result, dto.IntegrationResponse{
			ID:            integration.ID.String(),
			Provider:      integration.Provider,
			CalendarEmail: integration.CalendarEmail,
			ExpiresAt:     integration.TokenExpiresAt,
			ConnectedAt:   integration.CreatedAt,
		})
	}
	return result, nil
}

func (s *oauthService) Disconnect(ctx context.Context, userID uuid.UUID, provider string) error {
	if provider != constants.ProviderGoogle {
		return errors.NewAppError(errors.ErrInvalidInput, "Invalid provider", nil)
	}
	if err := s.repo.Delete(ctx, userID, provider); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to disconnect calendar", err)
	}
	logger.Info("OAuth:Disconnect", "user_id", userID, "provider", provider)
	return nil
}

// fetchCalendarEmail is best effort, a missing email never fails the connect.
func (s *oauthService) fetchCalendarEmail(ctx context.Context, accessToken string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userinfoURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Warn("OAuth:FetchCalendarEmail:Error", "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return ""
	}
	return info.Email
}
