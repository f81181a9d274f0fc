package server

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"civicsnap/internal"
	"civicsnap/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type cognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	var creds types.Credentials
	if err := s.readJSON(r, &creds); err != nil {
		s.writeError(w, err)
		return
	}

	email := strings.TrimSpace(creds.Email)
	if email == "" || creds.Password == "" {
		s.writeError(w, types.NewValidationError("email", "email and password are required"))
		return
	}

	if s.cognito == nil || s.tokens == nil {
		s.writeError(w, types.ConfigurationError("identity provider is not configured"))
		return
	}

	input := &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: ctypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(s.config.CognitoClientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": creds.Password,
		},
	}

	resp, err := s.cognito.InitiateAuth(r.Context(), input)
	if err != nil {
		// NotAuthorizedException, UserNotConfirmedException, etc.
		s.logger.WithError(err).Info("login failed")
		s.writeJSON(w, http.StatusUnauthorized, &types.ErrorResponse{Error: "Invalid credentials"})
		return
	}

	if resp.AuthenticationResult == nil || resp.AuthenticationResult.AccessToken == nil {
		s.writeJSON(w, http.StatusUnauthorized, &types.ErrorResponse{Error: "Login failed"})
		return
	}

	accessToken := aws.ToString(resp.AuthenticationResult.AccessToken)
	expiresIn := int(resp.AuthenticationResult.ExpiresIn)

	identity, err := s.tokens.Verify(r.Context(), accessToken)
	if err != nil {
		s.logger.WithError(err).Error("identity provider issued a token we cannot verify")
		s.writeJSON(w, http.StatusUnauthorized, &types.ErrorResponse{Error: "Login failed"})
		return
	}

	// access tokens carry no email claim
	if identity.Email == "" {
		identity.Email = email
	}

	encryptedToken, err := s.cookie.Encode(internal.COOKIE_ACCESS_TOKEN_NAME, accessToken)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt access token")
		s.writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    encryptedToken,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   expiresIn,
		Path:     "/",
	})

	s.logger.WithField("user_id", identity.UserID).Info("user logged in")

	s.writeJSON(w, http.StatusOK, &types.Identity{
		UserID:      identity.UserID,
		Email:       identity.Email,
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
	})
}

func (s *Service) handlePostRegister(w http.ResponseWriter, r *http.Request) {
	var creds types.Credentials
	if err := s.readJSON(r, &creds); err != nil {
		s.writeError(w, err)
		return
	}

	email := strings.TrimSpace(creds.Email)
	if err := validateRegisterInput(email, creds.Password); err != nil {
		s.writeError(w, err)
		return
	}

	if s.cognito == nil {
		s.writeError(w, types.ConfigurationError("identity provider is not configured"))
		return
	}

	input := &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(s.config.CognitoClientID),
		Username: aws.String(email), // use email as username
		Password: aws.String(creds.Password),
		UserAttributes: []ctypes.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	}

	resp, err := s.cognito.SignUp(r.Context(), input)
	if err != nil {
		var exists *ctypes.UsernameExistsException
		var weak *ctypes.InvalidPasswordException
		switch {
		case errors.As(err, &exists):
			s.writeError(w, types.NewValidationError("email", "an account with this email already exists"))
		case errors.As(err, &weak):
			s.writeError(w, types.NewValidationError("password", "password does not meet requirements"))
		default:
			s.writeError(w, types.UpstreamError("sign up", err))
		}
		return
	}

	s.writeJSON(w, http.StatusCreated, &types.RegisterResponse{
		UserID:        aws.ToString(resp.UserSub),
		UserConfirmed: resp.UserConfirmed,
	})
}

func validateRegisterInput(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return types.NewValidationError("email", "a valid email is required")
	}
	if len(password) < 8 {
		return types.NewValidationError("password", "password must be at least 8 characters")
	}
	return nil
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})

	w.WriteHeader(http.StatusNoContent)
}
